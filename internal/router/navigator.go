package router

// maxRedirects bounds redirect chains in a misconfigured route table.
const maxRedirects = 8

// Navigator keeps a history stack and resolves its top entry against the
// current session state on every read, so a logout takes effect on the next
// render.
type Navigator struct {
	authenticated func() bool
	history       []string
}

// NewNavigator starts at path. authenticated is consulted on every resolution.
func NewNavigator(authenticated func() bool, start string) *Navigator {
	n := &Navigator{authenticated: authenticated}
	n.Navigate(start)
	return n
}

// Navigate pushes path and follows any redirects.
func (n *Navigator) Navigate(path string) Resolution {
	n.history = append(n.history, normalize(path))
	return n.settle()
}

// Replace swaps the current entry for path.
func (n *Navigator) Replace(path string) Resolution {
	if len(n.history) == 0 {
		return n.Navigate(path)
	}
	n.history[len(n.history)-1] = normalize(path)
	return n.settle()
}

// Back pops the current entry. It reports false when there is nothing to go back to.
func (n *Navigator) Back() (Resolution, bool) {
	if len(n.history) < 2 {
		return n.Current(), false
	}
	n.history = n.history[:len(n.history)-1]
	return n.settle(), true
}

// Current resolves the top entry again.
func (n *Navigator) Current() Resolution { return n.settle() }

// History returns a copy of the stack, oldest first.
func (n *Navigator) History() []string {
	return append([]string(nil), n.history...)
}

func (n *Navigator) settle() Resolution {
	var res Resolution
	for i := 0; i <= maxRedirects; i++ {
		top := len(n.history) - 1
		res = Resolve(n.history[top], n.authenticated())
		if !res.Redirected() {
			res.Path = n.history[top]
			return res
		}
		if res.Replace {
			n.history[top] = res.RedirectTo
		} else {
			n.history = append(n.history, res.RedirectTo)
		}
	}
	return res
}
