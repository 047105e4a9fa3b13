package bot

import "reflect"

// identical reports whether x and y are the same value by identity.
// Pointers, maps, channels, and functions compare by reference;
// slices by backing array and length; comparable values by ==.
//
// A reducer that returns its input state unchanged is telling us the
// dispatch is a no-op, so this check must not fall back to deep
// equality.
func identical(x, y interface{}) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	vx, vy := reflect.ValueOf(x), reflect.ValueOf(y)
	if vx.Type() != vy.Type() {
		return false
	}
	switch vx.Kind() {
	case reflect.Map, reflect.Ptr, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return vx.Pointer() == vy.Pointer()
	case reflect.Slice:
		return vx.Pointer() == vy.Pointer() && vx.Len() == vy.Len()
	}
	if vx.Type().Comparable() {
		return x == y
	}
	return false
}
