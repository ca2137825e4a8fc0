package linepolicy

// adjust applies a mismatch action to the output lines so they map onto n
// source lines. The second result is true when the action cannot produce
// such a mapping: retry and error never do, pad cannot shorten and truncate
// cannot lengthen.
func adjust(action Action, out []string, n int) ([]string, bool) {
	m := len(out)
	switch action {
	case ActionPad:
		if m > n {
			return nil, true
		}
		adj := make([]string, n)
		copy(adj, out)
		return adj, false
	case ActionTruncate:
		if m < n {
			return nil, true
		}
		return append([]string(nil), out[:n]...), false
	case ActionAlign:
		return align(out, n), false
	default:
		return nil, true
	}
}

// align reflows m output lines onto n source slots proportionally. With
// more output than source, output line j lands in slot j*n/m and lines
// sharing a slot are joined with a space. With less, slot i repeats output
// line i*m/n, so every source line gets the translation that covers it.
func align(out []string, n int) []string {
	adj := make([]string, n)
	m := len(out)
	if n == 0 || m == 0 {
		return adj
	}
	if m < n {
		for i := range adj {
			adj[i] = out[i*m/n]
		}
		return adj
	}
	for j, text := range out {
		slot := j * n / m
		if adj[slot] == "" {
			adj[slot] = text
		} else {
			adj[slot] += " " + text
		}
	}
	return adj
}
