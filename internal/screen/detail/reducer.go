package detail

func (refreshing) reduce(s ViewState) ViewState {
	s.IsRefreshing = true
	return s
}

func (refreshError) reduce(s ViewState) ViewState {
	s.IsRefreshing = false
	return s
}

// The seed never replaces a detail that is already shown.
func (c initialLoaded) reduce(s ViewState) ViewState {
	s.IsLoading = false
	s.Error = nil
	if s.Detail == nil {
		d := DetailFromInitial(c.seed)
		s.Detail = &d
	}
	return s
}

func (c detailLoaded) reduce(s ViewState) ViewState {
	d := c.detail
	s.IsLoading = false
	s.Error = nil
	s.Detail = &d
	return s
}

func (loading) reduce(s ViewState) ViewState {
	s.IsLoading = true
	return s
}

func (c detailError) reduce(s ViewState) ViewState {
	s.IsLoading = false
	s.Error = c.err
	return s
}

func (c refreshSuccess) reduce(s ViewState) ViewState {
	d := c.detail
	s.IsRefreshing = false
	s.Detail = &d
	return s
}

// Reduce folds c into s.
func Reduce(s ViewState, c Change) ViewState {
	return c.reduce(s)
}
