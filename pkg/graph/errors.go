package graph

import "fmt"

// ConfigurationError reports a structural problem with a graph definition,
// raised by the builder or by Validate/Compile. The Kind distinguishes the
// specific rule violated, mirroring the Errors enum of the source this
// engine's routing semantics are modeled on.
type ConfigurationError struct {
	Kind    string
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func newConfigErr(kind, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	errInvalidNodeIdentifier   = "invalid_node_identifier"
	errDuplicateNode           = "duplicate_node"
	errInvalidEdgeIdentifier   = "invalid_edge_identifier"
	errDuplicateEdge           = "duplicate_edge"
	errDuplicateConditionalDup = "duplicate_conditional_edge"
	errEmptyMapping            = "edge_mapping_is_empty"
	errMissingEntryPoint       = "missing_entry_point"
	errEntryPointNotExist      = "entry_point_not_exist"
	errMissingNodeForEdge      = "missing_node_referenced_by_edge"
	errMissingNodeInMapping    = "missing_node_in_edge_mapping"
	errInvalidEdgeTarget       = "invalid_edge_target"
	errDuplicateEdgeTarget     = "duplicate_edge_target"
	errConditionalOnParallel   = "unsupported_conditional_edge_on_parallel_node"
	errMultiTargetOnParallel   = "illegal_multiple_targets_on_parallel_node"
	errInterruptionNodeMissing = "interruption_node_not_exist"
)
