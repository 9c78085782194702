package opline

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the operation. Callees
// retrieve it with FromContext; sub-operations begun from the derived
// context link to it as their parent.
func NewContext(ctx context.Context, op *Op) context.Context {
	return context.WithValue(ctx, ctxKey{}, op)
}

// FromContext returns the operation carried by ctx, if any.
func FromContext(ctx context.Context) (*Op, bool) {
	op, ok := ctx.Value(ctxKey{}).(*Op)
	return op, ok
}

// Begin creates and starts an operation in one call and returns a
// derived context carrying it. When ctx already carries an operation the
// new one becomes its child: same-category parents contribute their name
// prefix and context copy; parents from other categories are linked by
// id only. Restoring the previous current operation happens naturally
// when the derived context goes out of scope.
func (l *Logger) Begin(ctx context.Context, name string) (context.Context, *Op) {
	var op *Op
	if parent, ok := FromContext(ctx); ok {
		if parent.log == l {
			op = parent.Sub(name)
		} else {
			op = l.Op(name)
			op.rec.ParentID = parent.rec.FullID()
			op.rec.Context = parent.rec.Context.Clone()
			op.parent = parent
			parent.children.Add(1)
		}
	} else {
		op = l.Op(name)
	}
	ctx = NewContext(ctx, op)
	op.ctx = ctx
	op.Start()
	return ctx, op
}
