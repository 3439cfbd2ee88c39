package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Resources    *ResourceHandler
	Rules        *RuleHandler
	Reservations *ReservationHandler
	Sanctions    *SanctionHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Resources != nil {
		mux.HandleFunc("/resources", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Resources.List(w, r)
			case http.MethodPost:
				cfg.Resources.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/resources/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/resources/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			if rest == "buildings" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Resources.ListBuildings(w, r)
				return
			}

			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))

			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Resources.Get(w, r)
				case http.MethodPut:
					cfg.Resources.Update(w, r)
				case http.MethodDelete:
					cfg.Resources.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "status":
				if r.Method != http.MethodPut {
					methodNotAllowed(w, http.MethodPut)
					return
				}
				cfg.Resources.SetStatus(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Rules != nil {
		mux.HandleFunc("/rules", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rules.List(w, r)
			case http.MethodPost:
				cfg.Rules.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/rules/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/rules/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithRuleID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Rules.Get(w, r)
			case http.MethodPut:
				cfg.Rules.Update(w, r)
			case http.MethodDelete:
				cfg.Rules.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Reservations != nil {
		mux.HandleFunc("/reservations", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Reservations.Create(w, r)
		})
		mux.HandleFunc("/reservations/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/reservations/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			if rest == "my" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Reservations.ListMine(w, r)
				return
			}
			if resourceID, ok := strings.CutPrefix(rest, "calendar/"); ok {
				if resourceID == "" || strings.Contains(resourceID, "/") {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				r = r.WithContext(ContextWithResourceID(r.Context(), resourceID))
				cfg.Reservations.Calendar(w, r)
				return
			}

			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithReservationID(r.Context(), id))

			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Reservations.Get(w, r)
				case http.MethodPut:
					cfg.Reservations.Update(w, r)
				case http.MethodDelete:
					cfg.Reservations.Cancel(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "approve":
				postOnly(w, r, cfg.Reservations.Approve)
			case "reject":
				postOnly(w, r, cfg.Reservations.Reject)
			case "check-in":
				postOnly(w, r, cfg.Reservations.CheckIn)
			case "check-out":
				postOnly(w, r, cfg.Reservations.CheckOut)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Sanctions != nil {
		mux.HandleFunc("/sanctions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Sanctions.Create(w, r)
		})
		mux.HandleFunc("/sanctions/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/sanctions/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			if rest == "my" {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Sanctions.ListMine(w, r)
				return
			}
			if userID, ok := strings.CutPrefix(rest, "users/"); ok {
				if userID == "" || strings.Contains(userID, "/") {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				r = r.WithContext(ContextWithUserID(r.Context(), userID))
				cfg.Sanctions.ListUser(w, r)
				return
			}

			id, action, _ := strings.Cut(rest, "/")
			if id == "" || action != "resolve" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithSanctionID(r.Context(), id))
			postOnly(w, r, cfg.Sanctions.Resolve)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func postOnly(w http.ResponseWriter, r *http.Request, handle func(http.ResponseWriter, *http.Request)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	handle(w, r)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
