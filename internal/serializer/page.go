package serializer

import (
	"net/url"
	"strconv"
)

// Page: конверт постраничной выдачи.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// PageLinks строит ссылки next/previous, сохраняя остальные параметры запроса.
// requestURL должен быть абсолютным. Для страницы за пределами выдачи next == nil,
// previous указывает на последнюю существующую страницу.
func PageLinks(requestURL *url.URL, page, pageSize, count int) (next, previous *string) {
	lastPage := 1
	if count > 0 && pageSize > 0 {
		lastPage = (count + pageSize - 1) / pageSize
	}

	if page < lastPage {
		link := withPage(requestURL, page+1)
		next = &link
	}
	if page > 1 {
		prev := page - 1
		if prev > lastPage {
			prev = lastPage
		}
		link := withPage(requestURL, prev)
		previous = &link
	}
	return next, previous
}

func withPage(u *url.URL, page int) string {
	cp := *u
	q := cp.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	cp.RawQuery = q.Encode()
	return cp.String()
}
