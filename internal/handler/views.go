package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/blogapp/internal/listing"
	"github.com/msomdec/blogapp/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// HandleViewStream pushes every accepted listing result of a live view as
// Datastar patches of #blog-grid and #pagination, and mirrors the committed
// query into the address bar.
func (h *BlogHandler) HandleViewStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := h.lookup(r)
	if !ok {
		if c, ok = h.claim(r); !ok {
			reloadGone(w, r)
			return
		}
	}

	// Only the newest undelivered result matters.
	mailbox := make(chan listing.Result, 1)
	cancel := c.Subscribe(func(res listing.Result) {
		for {
			select {
			case mailbox <- res:
				return
			default:
			}
			select {
			case <-mailbox:
			default:
			}
		}
	})
	defer cancel()

	sse := datastar.NewSSE(w, r)
	if res, ok := c.Latest(); ok {
		if err := patchListing(sse, id, res, "replaceState"); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case res := <-mailbox:
			if err := patchListing(sse, id, res, "pushState"); err != nil {
				slog.Debug("listing stream closed", "view", id, "error", err)
				return
			}
		}
	}
}

// HandleViewInput feeds the search signal into the view's debouncer. With
// flush=1 the input is committed at once.
func (h *BlogHandler) HandleViewInput(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(r)
	if !ok {
		reloadGone(w, r)
		return
	}

	var signals struct {
		Search string `json:"search"`
	}
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	c.Type(strings.TrimSpace(signals.Search))
	if r.URL.Query().Get("flush") == "1" {
		c.FlushSearch()
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleViewPage moves a live view to page n, or one page with n=prev and
// n=next.
func (h *BlogHandler) HandleViewPage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(r)
	if !ok {
		reloadGone(w, r)
		return
	}

	switch n := r.URL.Query().Get("n"); n {
	case "prev":
		c.Prev()
	case "next":
		c.Next()
	default:
		page, err := strconv.Atoi(n)
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		c.SetPage(page)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlogHandler) lookup(r *http.Request) (*listing.Controller, bool) {
	store := StoreFromContext(r.Context())
	if store == nil {
		return nil, false
	}
	return h.views.Get(r.PathValue("id"), store.Key())
}

// claimWindow bounds how long after rendering a page its stream may
// register the page's view.
const claimWindow = time.Minute

// streamQuery encodes the stream parameters of a freshly rendered view: the
// rendered query and the render time, so the first connection can register
// the view.
func streamQuery(q listing.Query, at time.Time) string {
	v := q.Values()
	v.Set("at", strconv.FormatInt(at.Unix(), 10))
	return v.Encode()
}

// claim registers the view named in r for the visitor, starting from the
// query the page was rendered with. A stream arriving after claimWindow has
// outlived its view and gets nothing.
func (h *BlogHandler) claim(r *http.Request) (*listing.Controller, bool) {
	store := StoreFromContext(r.Context())
	id := r.PathValue("id")
	if store == nil {
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	params := r.URL.Query()
	at, err := strconv.ParseInt(params.Get("at"), 10, 64)
	if err != nil {
		return nil, false
	}
	if age := time.Since(time.Unix(at, 0)); age > claimWindow || age < -claimWindow {
		return nil, false
	}

	c := listing.NewController(h.blogs.Fetcher(store), listing.ParseQuery(params), h.debounce...)
	if !h.views.Claim(id, store.Key(), c) {
		c.Close()
		return nil, false
	}
	c.Start()
	c.Wait()
	return c, true
}

// reloadGone asks the browser to reload the current address when its view
// has been evicted. The address carries the last committed query.
func reloadGone(w http.ResponseWriter, r *http.Request) {
	if !isDatastar(r) {
		http.NotFound(w, r)
		return
	}
	sse := datastar.NewSSE(w, r)
	sse.ExecuteScript("window.location.reload()")
}

func patchListing(sse *datastar.ServerSentEventGenerator, id string, res listing.Result, history string) error {
	if err := sse.PatchElementTempl(
		view.BlogGrid(res),
		datastar.WithSelectorID("blog-grid"),
		datastar.WithModeInner(),
	); err != nil {
		return err
	}
	if err := sse.PatchElementTempl(
		view.PaginationControl(view.Pagination{Pager: res.Pager(), Query: res.Query, ViewID: id}),
		datastar.WithSelectorID("pagination"),
		datastar.WithModeInner(),
	); err != nil {
		return err
	}
	url, err := json.Marshal(res.Query.URL())
	if err != nil {
		return err
	}
	return sse.ExecuteScript(fmt.Sprintf("window.history.%s(null, '', %s)", history, url))
}
