package template

import (
	"errors"
	"fmt"
	"math"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/validation"
)

// CPUQuantity renders cores as a Kubernetes quantity, e.g. 0.1 -> "100m".
func CPUQuantity(cores float64) resource.Quantity {
	return *resource.NewMilliQuantity(int64(math.Round(cores*1000)), resource.DecimalSI)
}

// MemoryQuantity renders megabytes as a Kubernetes quantity, e.g. 100 -> "100M".
func MemoryQuantity(mb int) resource.Quantity {
	return *resource.NewScaledQuantity(int64(mb), resource.Mega)
}

func resourceName(doc ReleaseDoc) string {
	return sanitize(doc.Release.ProjectPermalink + "-" + doc.RoleName)
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", "-", " ", "-", ".", "-").Replace(s)
	return strings.Trim(s, "-")
}

func selectorLabels(doc ReleaseDoc) map[string]string {
	return map[string]string{
		"project": sanitize(doc.Release.ProjectPermalink),
		"role":    sanitize(doc.RoleName),
	}
}

func podLabels(doc ReleaseDoc) map[string]string {
	l := selectorLabels(doc)
	l["deploy-group"] = sanitize(doc.DeployGroup.Name)
	return l
}

func releaseAnnotations(doc ReleaseDoc) map[string]string {
	a := map[string]string{
		AnnotationGitRef:   doc.Release.GitRef,
		AnnotationGitSHA:   doc.Release.GitSHA,
		AnnotationDeployer: doc.Release.Author,
	}
	if doc.DeleteResource {
		a[AnnotationDeleteResource] = "true"
	}
	return a
}

func validateNames(doc ReleaseDoc) error {
	var errs []error
	if doc.RoleName == "" {
		errs = append(errs, errors.New("role name is required"))
	}
	if doc.DeployGroup.Name == "" {
		errs = append(errs, errors.New("deploy group is required"))
	}
	for _, msg := range validation.IsDNS1123Subdomain(resourceName(doc)) {
		errs = append(errs, fmt.Errorf("name %q: %s", resourceName(doc), msg))
	}
	for k, v := range podLabels(doc) {
		for _, msg := range validation.IsValidLabelValue(v) {
			errs = append(errs, fmt.Errorf("label %s=%q: %s", k, v, msg))
		}
	}
	return errors.Join(errs...)
}

// DeploymentCompiler renders the workload of a role in a deploy group.
type DeploymentCompiler struct{}

func (c *DeploymentCompiler) Validate(doc ReleaseDoc) error {
	if err := validateNames(doc); err != nil {
		return err
	}
	switch {
	case doc.Release.GitSHA == "":
		return errors.New("git sha is required")
	case doc.Replicas < 0:
		return fmt.Errorf("replicas must not be negative, got %d", doc.Replicas)
	case doc.LimitsMemory <= 0:
		return errors.New("memory limit is required")
	case doc.LimitsCPU != nil && *doc.LimitsCPU <= 0:
		return errors.New("cpu limit must be positive")
	}
	return nil
}

func (c *DeploymentCompiler) Compile(doc ReleaseDoc) (any, error) {
	image := doc.Release.ImageRepository
	if image == "" {
		image = sanitize(doc.Release.ProjectPermalink)
	}

	limits := corev1.ResourceList{
		corev1.ResourceMemory: MemoryQuantity(doc.LimitsMemory),
	}
	if doc.LimitsCPU != nil {
		limits[corev1.ResourceCPU] = CPUQuantity(*doc.LimitsCPU)
	}

	replicas := int32(doc.Replicas)
	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: KindDeployment},
		ObjectMeta: metav1.ObjectMeta{
			Name:        resourceName(doc),
			Labels:      podLabels(doc),
			Annotations: releaseAnnotations(doc),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: selectorLabels(doc)},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: podLabels(doc)},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:  sanitize(doc.RoleName),
						Image: image + ":" + doc.Release.GitSHA,
						Resources: corev1.ResourceRequirements{
							Requests: corev1.ResourceList{
								corev1.ResourceCPU:    CPUQuantity(doc.RequestsCPU),
								corev1.ResourceMemory: MemoryQuantity(doc.RequestsMemory),
							},
							Limits: limits,
						},
					}},
				},
			},
		},
	}, nil
}

// ServiceCompiler renders the service fronting a role.
type ServiceCompiler struct{}

func (c *ServiceCompiler) Validate(doc ReleaseDoc) error {
	if err := validateNames(doc); err != nil {
		return err
	}
	var errs []error
	for _, msg := range validation.IsDNS1035Label(doc.ServiceName) {
		errs = append(errs, fmt.Errorf("service name %q: %s", doc.ServiceName, msg))
	}
	return errors.Join(errs...)
}

func (c *ServiceCompiler) Compile(doc ReleaseDoc) (any, error) {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: KindService},
		ObjectMeta: metav1.ObjectMeta{
			Name:        doc.ServiceName,
			Labels:      podLabels(doc),
			Annotations: releaseAnnotations(doc),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: selectorLabels(doc),
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       80,
				TargetPort: intstr.FromInt32(80),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}, nil
}

// PDBCompiler renders a disruption budget keeping all but one replica up.
type PDBCompiler struct{}

func (c *PDBCompiler) Validate(doc ReleaseDoc) error {
	return validateNames(doc)
}

func (c *PDBCompiler) Compile(doc ReleaseDoc) (any, error) {
	minAvailable := intstr.FromInt32(int32(max(doc.Replicas-1, 0)))
	return &policyv1.PodDisruptionBudget{
		TypeMeta: metav1.TypeMeta{APIVersion: "policy/v1", Kind: KindPodDisruptionBudget},
		ObjectMeta: metav1.ObjectMeta{
			Name:        resourceName(doc),
			Labels:      podLabels(doc),
			Annotations: releaseAnnotations(doc),
		},
		Spec: policyv1.PodDisruptionBudgetSpec{
			MinAvailable: &minAvailable,
			Selector:     &metav1.LabelSelector{MatchLabels: selectorLabels(doc)},
		},
	}, nil
}
