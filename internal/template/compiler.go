// Package template turns a ReleaseDoc into the Kubernetes documents it
// would deploy.
package template

import (
	"fmt"

	"sigs.k8s.io/yaml"

	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"github.com/iac-studio/rolecfg/pkg/utils"
)

const (
	KindDeployment          = "Deployment"
	KindService             = "Service"
	KindPodDisruptionBudget = "PodDisruptionBudget"

	annotationPrefix         = "rolecfg.iac-studio.io/"
	AnnotationGitRef         = annotationPrefix + "git-ref"
	AnnotationGitSHA         = annotationPrefix + "git-sha"
	AnnotationDeployer       = annotationPrefix + "deployer"
	AnnotationDeleteResource = annotationPrefix + "delete-resource"
	AnnotationVerification   = annotationPrefix + "verification"
	AnnotationChecksum       = annotationPrefix + "config-checksum"
)

// ResourceCompiler builds one kind of Kubernetes object from a ReleaseDoc.
type ResourceCompiler interface {
	Validate(doc ReleaseDoc) error
	Compile(doc ReleaseDoc) (any, error)
}

// Compiler renders ReleaseDocs with its registered resource compilers.
type Compiler struct {
	resourceCompilers map[string]ResourceCompiler
}

func NewCompiler() *Compiler {
	c := &Compiler{
		resourceCompilers: make(map[string]ResourceCompiler),
	}

	c.RegisterCompiler(KindDeployment, &DeploymentCompiler{})
	c.RegisterCompiler(KindService, &ServiceCompiler{})
	c.RegisterCompiler(KindPodDisruptionBudget, &PDBCompiler{})

	return c
}

func (c *Compiler) RegisterCompiler(kind string, compiler ResourceCompiler) {
	c.resourceCompilers[kind] = compiler
}

// Document is one rendered Kubernetes object in structured form.
type Document struct {
	Kind   string         `json:"kind"`
	Name   string         `json:"name"`
	Object map[string]any `json:"object"`
}

// Rendered is the result of a render.
type Rendered struct {
	Documents []Document `json:"documents"`
	// Checksum identifies the resource values the documents were built from.
	Checksum     string `json:"checksum"`
	Verification bool   `json:"verification"`
}

// YAML returns the documents as a multi-document YAML stream.
func (r *Rendered) YAML() ([]byte, error) {
	var out []byte
	for i, d := range r.Documents {
		b, err := yaml.Marshal(d.Object)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", d.Kind, d.Name, err)
		}
		if i > 0 {
			out = append(out, "---\n"...)
		}
		out = append(out, b...)
	}
	return out, nil
}

// Render builds the documents for doc. Nothing is persisted. Any failure is a
// *errors.TemplateError and no partial result is returned.
func (c *Compiler) Render(doc ReleaseDoc, opts Options) (*Rendered, error) {
	checksum, err := configChecksum(doc)
	if err != nil {
		return nil, &appErr.TemplateError{Err: err}
	}

	out := &Rendered{Checksum: checksum, Verification: opts.Verification}
	for _, kind := range kindsFor(doc, opts) {
		compiler, exists := c.resourceCompilers[kind]
		if !exists {
			return nil, &appErr.TemplateError{Kind: kind, Err: fmt.Errorf("unsupported resource kind")}
		}

		if err := compiler.Validate(doc); err != nil {
			return nil, &appErr.TemplateError{Kind: kind, Err: fmt.Errorf("validation failed: %w", err)}
		}

		obj, err := compiler.Compile(doc)
		if err != nil {
			return nil, &appErr.TemplateError{Kind: kind, Err: fmt.Errorf("compilation failed: %w", err)}
		}

		structured, err := toStructured(obj)
		if err != nil {
			return nil, &appErr.TemplateError{Kind: kind, Err: err}
		}
		annotate(structured, AnnotationChecksum, checksum)
		if opts.Verification {
			annotate(structured, AnnotationVerification, "true")
		}

		out.Documents = append(out.Documents, Document{
			Kind:   kind,
			Name:   nameOf(structured),
			Object: structured,
		})
	}
	return out, nil
}

func kindsFor(doc ReleaseDoc, opts Options) []string {
	kinds := []string{KindDeployment}
	if !opts.Verification {
		return kinds
	}
	if doc.ServiceName != "" {
		kinds = append(kinds, KindService)
	}
	return append(kinds, KindPodDisruptionBudget)
}

// toStructured converts a typed object into a generic document, dropping the
// empty status and zero timestamps the API types carry.
func toStructured(obj any) (map[string]any, error) {
	b, err := yaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal object: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	delete(m, "status")
	if meta, ok := m["metadata"].(map[string]any); ok {
		delete(meta, "creationTimestamp")
	}
	return m, nil
}

func annotate(obj map[string]any, key, value string) {
	meta, ok := obj["metadata"].(map[string]any)
	if !ok {
		meta = map[string]any{}
		obj["metadata"] = meta
	}
	annotations, ok := meta["annotations"].(map[string]any)
	if !ok {
		annotations = map[string]any{}
		meta["annotations"] = annotations
	}
	annotations[key] = value
}

func nameOf(obj map[string]any) string {
	meta, _ := obj["metadata"].(map[string]any)
	name, _ := meta["name"].(string)
	return name
}

type checksumInput struct {
	Role           string   `json:"role"`
	DeployGroup    string   `json:"deploy_group"`
	Replicas       int      `json:"replicas"`
	RequestsCPU    float64  `json:"requests_cpu"`
	LimitsCPU      *float64 `json:"limits_cpu"`
	RequestsMemory int      `json:"requests_memory"`
	LimitsMemory   int      `json:"limits_memory"`
	DeleteResource bool     `json:"delete_resource"`
}

func configChecksum(doc ReleaseDoc) (string, error) {
	b, err := yaml.Marshal(checksumInput{
		Role:           doc.RoleName,
		DeployGroup:    doc.DeployGroup.Name,
		Replicas:       doc.Replicas,
		RequestsCPU:    doc.RequestsCPU,
		LimitsCPU:      doc.LimitsCPU,
		RequestsMemory: doc.RequestsMemory,
		LimitsMemory:   doc.LimitsMemory,
		DeleteResource: doc.DeleteResource,
	})
	if err != nil {
		return "", err
	}
	return utils.SHA256Hex(b), nil
}
