package target

// Resolver expands raw tokens into a validated Set.
type Resolver struct {
	Host Host
}

// NewResolver returns a Resolver using host for the current-platform aliases.
// A nil host means RuntimeHost.
func NewResolver(host Host) *Resolver {
	if host == nil {
		host = RuntimeHost{}
	}
	return &Resolver{Host: host}
}

// Resolve turns tokens into concrete targets.
//
// An empty token list resolves as DefaultTokens. If "all" appears anywhere,
// the result is exactly All() and no other token is examined. Otherwise each
// token is expanded in order, duplicates are dropped keeping the first
// occurrence, and the first error aborts resolution with no partial result.
func (r *Resolver) Resolve(tokens []string, defaultType BuildType) (Set, error) {
	if len(tokens) == 0 {
		tokens = DefaultTokens
	}

	normalized := make([]string, len(tokens))
	for i, tok := range tokens {
		normalized[i] = NormalizeToken(tok)
		if normalized[i] == AliasAll {
			return All(), nil
		}
	}

	seen := make(map[Target]struct{}, len(tokens))
	var out Set
	for i, tok := range normalized {
		t, err := r.expand(tok, defaultType)
		if err != nil {
			return nil, err
		}
		if !IsValid(t) {
			return nil, NewUnsupportedCombinationError(tokens[i], t)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out, nil
}

// expand handles a single normalized token other than "all".
func (r *Resolver) expand(token string, defaultType BuildType) (Target, error) {
	if t, ok := Lookup(token); ok {
		return t, nil
	}

	switch token {
	case AliasCurrent:
		return r.current(defaultType)
	case AliasDev, AliasDevelopment:
		return r.current(Development)
	case AliasRelease:
		return r.current(Release)
	}

	t, isLiteral, err := parseLiteral(token, defaultType)
	if err != nil {
		return Target{}, err
	}
	if !isLiteral {
		return Target{}, NewUnknownTargetError(token, "", "")
	}
	return t, nil
}

func (r *Resolver) current(bt BuildType) (Target, error) {
	host := r.Host
	if host == nil {
		host = RuntimeHost{}
	}
	os, cpu, err := host.Platform()
	if err != nil {
		return Target{}, err
	}
	return Target{BuildType: bt, OS: os, CPU: cpu}, nil
}
