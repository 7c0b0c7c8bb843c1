package query

// Query is a marker interface for all queries.
type Query interface {
	// QueryName returns the name of the query for logging/tracing.
	QueryName() string
}
