package models

// Draft is a partial prompt produced by AI extraction. Every field is optional.
type Draft struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Objective string   `json:"objective,omitempty" yaml:"objective,omitempty"`
	Persona   string   `json:"persona,omitempty" yaml:"persona,omitempty"`
	Content   string   `json:"content,omitempty" yaml:"content,omitempty"`
	Category  Category `json:"category,omitempty" yaml:"category,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}
