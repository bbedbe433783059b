package home

// withoutMarkers returns the book rows of items.
func withoutMarkers(items []Item) []Item {
	out := make([]Item, 0, len(items)+1)
	for _, item := range items {
		if item.Kind == ItemBook {
			out = append(out, item)
		}
	}
	return out
}

func bookItems(books []Book) []Item {
	items := make([]Item, len(books))
	for i, b := range books {
		items[i] = BookItem(b)
	}
	return items
}

func (loadingFirstPage) reduce(s ViewState) ViewState {
	s.Items = append([]Item{LoadingItem()}, withoutMarkers(s.Items)...)
	return s
}

func (c firstPageLoaded) reduce(s ViewState) ViewState {
	s.SearchTerm = c.searchTerm
	s.Books = append([]Book{}, c.books...)
	s.Items = bookItems(s.Books)
	return s
}

func (c loadFirstPageError) reduce(s ViewState) ViewState {
	s.SearchTerm = c.searchTerm
	s.Books = []Book{}
	s.Items = []Item{ErrorItem(c.err, true)}
	return s
}

func (loadingNextPage) reduce(s ViewState) ViewState {
	s.Items = append(withoutMarkers(s.Items), LoadingItem())
	return s
}

func (c nextPageLoaded) reduce(s ViewState) ViewState {
	books := make([]Book, 0, len(s.Books)+len(c.books))
	books = append(books, s.Books...)
	books = append(books, c.books...)
	s.SearchTerm = c.searchTerm
	s.Books = books
	s.Items = bookItems(books)
	return s
}

func (c loadNextPageError) reduce(s ViewState) ViewState {
	s.SearchTerm = c.searchTerm
	s.Items = append(withoutMarkers(s.Items), ErrorItem(c.err, false))
	return s
}

// Reduce folds c into s.
func Reduce(s ViewState, c Change) ViewState {
	return c.reduce(s)
}
