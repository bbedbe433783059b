package favorites

// Rows keep their resolved book across id changes; every other id starts
// over as a loading placeholder.
func (c idsChanged) reduce(s ViewState) ViewState {
	current := make(map[string]Item, len(s.Items))
	for _, item := range s.Items {
		current[item.ID] = item
	}

	items := make([]Item, len(c.ids))
	for i, id := range c.ids {
		if item, ok := current[id]; ok && item.Book != nil {
			items[i] = item
			continue
		}
		items[i] = Item{ID: id, IsLoading: true}
	}
	s.Items = items
	return s
}

func (c bookLoaded) reduce(s ViewState) ViewState {
	book := c.book
	s.Items = replace(s.Items, c.id, func(Item) Item {
		return Item{ID: c.id, Book: &book}
	})
	return s
}

func (c bookError) reduce(s ViewState) ViewState {
	s.Items = replace(s.Items, c.id, func(item Item) Item {
		item.IsLoading = false
		item.Error = c.err
		return item
	})
	return s
}

func (refreshing) reduce(s ViewState) ViewState {
	s.IsRefreshing = true
	return s
}

func (c refreshSuccess) reduce(s ViewState) ViewState {
	s.IsRefreshing = false
	for _, b := range c.books {
		book := b
		s.Items = replace(s.Items, b.ID, func(Item) Item {
			return Item{ID: book.ID, Book: &book}
		})
	}
	return s
}

func (refreshError) reduce(s ViewState) ViewState {
	s.IsRefreshing = false
	return s
}

// replace returns a copy of items with the row of id passed through f.
func replace(items []Item, id string, f func(Item) Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		if item.ID == id {
			item = f(item)
		}
		out[i] = item
	}
	return out
}

// Reduce folds c into s.
func Reduce(s ViewState, c Change) ViewState {
	return c.reduce(s)
}
