package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func validConfig() DeployGroupRole {
	return DeployGroupRole{
		ProjectID:        uuid.New(),
		DeployGroupID:    uuid.New(),
		KubernetesRoleID: uuid.New(),
		Replicas:         2,
		RequestsCPU:      0.1,
		LimitsCPU:        floatPtr(0.3),
		RequestsMemory:   100,
		LimitsMemory:     300,
	}
}

func TestDeployGroupRoleValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DeployGroupRole)
		rules  ValidationRules
		field  string
		msg    string
	}{
		{name: "valid", mutate: func(*DeployGroupRole) {}},
		{name: "zero replicas are allowed", mutate: func(d *DeployGroupRole) { d.Replicas = 0 }},
		{
			name:   "negative replicas",
			mutate: func(d *DeployGroupRole) { d.Replicas = -1 },
			field:  "replicas",
			msg:    "must be greater than or equal to 0",
		},
		{
			name:   "negative requests cpu",
			mutate: func(d *DeployGroupRole) { d.RequestsCPU = -0.5 },
			field:  "requests_cpu",
			msg:    "must be greater than or equal to 0",
		},
		{
			name:   "missing memory limit",
			mutate: func(d *DeployGroupRole) { d.LimitsMemory = 0; d.RequestsMemory = 0 },
			field:  "limits_memory",
			msg:    "must be greater than 0",
		},
		{
			name:   "missing cpu limit",
			mutate: func(d *DeployGroupRole) { d.LimitsCPU = nil },
			field:  "limits_cpu",
			msg:    "can't be blank",
		},
		{
			name:   "zero cpu limit",
			mutate: func(d *DeployGroupRole) { d.LimitsCPU = floatPtr(0) },
			field:  "limits_cpu",
			msg:    "must be greater than 0",
		},
		{
			name:   "no cpu limit when not allowed",
			mutate: func(d *DeployGroupRole) { d.LimitsCPU = nil; d.NoCPULimit = true },
			field:  "no_cpu_limit",
			msg:    "is not allowed",
		},
		{
			name:   "no cpu limit when allowed",
			mutate: func(d *DeployGroupRole) { d.LimitsCPU = nil; d.NoCPULimit = true; d.RequestsCPU = 4 },
			rules:  ValidationRules{AllowNoCPULimit: true},
		},
		{
			name:   "requests above cpu limit",
			mutate: func(d *DeployGroupRole) { d.RequestsCPU = 1 },
			field:  "requests_cpu",
			msg:    "must be less than or equal to the cpu limit",
		},
		{
			name:   "requests above memory limit",
			mutate: func(d *DeployGroupRole) { d.RequestsMemory = 301 },
			field:  "requests_memory",
			msg:    "must be less than or equal to the memory limit",
		},
		{
			name:   "missing role",
			mutate: func(d *DeployGroupRole) { d.KubernetesRoleID = uuid.Nil },
			field:  "kubernetes_role_id",
			msg:    "can't be blank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validConfig()
			tt.mutate(&d)
			verr := d.Validate(tt.rules)
			if tt.field == "" {
				require.True(t, verr.Empty(), "unexpected errors: %v", verr.FullMessages())
				return
			}
			require.False(t, verr.Empty())
			assert.Contains(t, verr.On(tt.field), tt.msg)
		})
	}
}

func TestDeployGroupRoleValidateFullMessages(t *testing.T) {
	d := validConfig()
	d.Replicas = -1
	d.LimitsCPU = nil

	verr := d.Validate(ValidationRules{})
	require.Equal(t, []string{
		"Replicas must be greater than or equal to 0",
		"Limits cpu can't be blank",
	}, verr.FullMessages())
	require.Equal(t, "Replicas must be greater than or equal to 0 and Limits cpu can't be blank", verr.Sentence())
}

func TestCPULimit(t *testing.T) {
	d := validConfig()
	limit, ok := d.CPULimit()
	require.True(t, ok)
	require.InDelta(t, 0.3, limit, 1e-9)

	d.NoCPULimit = true
	_, ok = d.CPULimit()
	require.False(t, ok)
}

func TestRoleDefaultsResolve(t *testing.T) {
	var r Role
	d, err := r.DeclaredDefaults()
	require.NoError(t, err)
	require.Equal(t, TypeDefaults, d.Resolve(TypeDefaults))

	replicas := 2
	require.NoError(t, r.SetDefaults(RoleDefaults{Replicas: &replicas, LimitsCPU: floatPtr(1)}))
	d, err = r.DeclaredDefaults()
	require.NoError(t, err)

	got := d.Resolve(TypeDefaults)
	require.Equal(t, 2, got.Replicas)
	require.InDelta(t, 1.0, got.LimitsCPU, 1e-9)
	require.Equal(t, TypeDefaults.RequestsMemory, got.RequestsMemory)
	require.Equal(t, TypeDefaults.LimitsMemory, got.LimitsMemory)
}

func TestRoleDeclaredDefaultsInvalidJSON(t *testing.T) {
	r := Role{Name: "server", Defaults: []byte(`{"replicas":"many"}`)}
	_, err := r.DeclaredDefaults()
	require.Error(t, err)
}
