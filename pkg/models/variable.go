package models

// NodeVariable describes one reference a downstream node can interpolate.
type NodeVariable struct {
	Reference string `json:"reference"`
	Preview   string `json:"preview"`
	Type      string `json:"type"`
}

// NodeVariables lists the variables a node exposes.
type NodeVariables struct {
	NodeID    string         `json:"node_id"`
	NodeName  string         `json:"node_name"`
	Variables []NodeVariable `json:"variables"`
}
