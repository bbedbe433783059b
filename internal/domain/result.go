package domain

// Result holds either a value or an error. Repositories return it instead of
// (T, error) so that results can travel over channels as a single value.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}

// Get unpacks the result in the usual Go shape.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Fold collapses the result into a single value.
func Fold[T, R any](r Result[T], onOk func(T) R, onErr func(error) R) R {
	if r.Err != nil {
		return onErr(r.Err)
	}
	return onOk(r.Value)
}

// Map transforms the value of a successful result.
func Map[T, R any](r Result[T], f func(T) R) Result[R] {
	if r.Err != nil {
		return Fail[R](r.Err)
	}
	return Ok(f(r.Value))
}

// Bimap transforms either side of the result.
func Bimap[T, R any](r Result[T], f func(T) R, g func(error) error) Result[R] {
	if r.Err != nil {
		return Fail[R](g(r.Err))
	}
	return Ok(f(r.Value))
}
