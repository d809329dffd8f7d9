package workspace

import (
	"strings"
	"time"
)

// Project is the record a tree and its contents belong to. ABI and
// ContractBOC stay empty until a build succeeds.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Template    Template  `json:"template"`
	ABI         *ABI      `json:"abi,omitempty"`
	ContractBOC string    `json:"contractBOC,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ABI describes the get-methods a contract exposes.
type ABI struct {
	Getters []Getter `json:"getters"`
}

type Getter struct {
	Name        string      `json:"name"`
	Parameters  []Parameter `json:"parameters"`
	ReturnTypes []string    `json:"returnTypes"`
}

type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Empty reports whether the description has no getters.
func (a *ABI) Empty() bool {
	return a == nil || len(a.Getters) == 0
}

// NormalizeProject trims identifiers and fills the default name.
func NormalizeProject(p Project) Project {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = "Project"
	}
	if p.Template == "" {
		p.Template = TemplateBlank
	}
	return p
}
