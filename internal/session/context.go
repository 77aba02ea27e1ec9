package session

// Context holds the per-session execution history: a cwd hint, an env
// overlay, and bookkeeping about the last command run.
type Context struct {
	Cwd            string
	Env            map[string]string
	LastCommand    string
	LastExitCode   *int // nil means no command has completed with a known code
	ExecutionCount uint64
}

// NewContext seeds a context from a session's initial configuration.
func NewContext(initialCwd string) Context {
	return Context{
		Cwd: initialCwd,
		Env: make(map[string]string),
	}
}

// SetCwd sets the working-directory hint.
func (c *Context) SetCwd(cwd string) { c.Cwd = cwd }

// ClearCwd clears the working-directory hint.
func (c *Context) ClearCwd() { c.Cwd = "" }

// SetEnv sets a single environment variable.
func (c *Context) SetEnv(key, value string) {
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	c.Env[key] = value
}

// RemoveEnv deletes a single environment variable, if present.
func (c *Context) RemoveEnv(key string) {
	delete(c.Env, key)
}

// MergeEnv unions overlay into c.Env; overlay entries win on key collision.
func (c *Context) MergeEnv(overlay map[string]string) {
	if len(overlay) == 0 {
		return
	}
	if c.Env == nil {
		c.Env = make(map[string]string, len(overlay))
	}
	for k, v := range overlay {
		c.Env[k] = v
	}
}

// RecordExecution stores the last command and its exit code (which may be
// nil, e.g. on timeout) and increments the execution counter by exactly one.
func (c *Context) RecordExecution(cmd string, exitCode *int) {
	c.LastCommand = cmd
	c.LastExitCode = exitCode
	c.ExecutionCount++
}

// LastSucceeded reports whether the last recorded exit code is 0.
func (c *Context) LastSucceeded() bool {
	return c.LastExitCode != nil && *c.LastExitCode == 0
}

// LastFailed reports whether the last recorded exit code is set and non-zero.
func (c *Context) LastFailed() bool {
	return c.LastExitCode != nil && *c.LastExitCode != 0
}

// Clone returns a deep copy, used so registry snapshots never share the
// backing Env map with the stored record.
func (c Context) Clone() Context {
	out := c
	out.Env = make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		out.Env[k] = v
	}
	if c.LastExitCode != nil {
		v := *c.LastExitCode
		out.LastExitCode = &v
	}
	return out
}
