package shared

import "context"

// Operator identifies the person driving the current request. The app has
// no authentication model; the name is informational and recorded on the
// rows an operation appends.
type Operator struct {
	Name string
}

type operatorContextKey struct{}

// ContextWithOperator stores the operator in context.
func ContextWithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey{}, op)
}

// OperatorFromContext extracts the operator, defaulting to "local".
func OperatorFromContext(ctx context.Context) Operator {
	if op, ok := ctx.Value(operatorContextKey{}).(Operator); ok && op.Name != "" {
		return op
	}
	return Operator{Name: "local"}
}
