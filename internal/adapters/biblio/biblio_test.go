package biblio_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"girder/internal/adapters/biblio"
)

const worksBody = `{
  "message": {
    "items": [
      {
        "title": ["Resource-Constrained Project Scheduling"],
        "container-title": ["Management Science"],
        "DOI": "10.1000/demo.1",
        "author": [
          {"given": "Rainer", "family": "Kolisch"}
        ],
        "issued": {"date-parts": [[1995, 6]]}
      },
      {
        "title": [],
        "DOI": "10.1000/demo.2"
      }
    ]
  }
}`

func TestSearch(t *testing.T) {
	convey.Convey("Given a works endpoint", t, func() {
		ctx := context.Background()

		convey.Convey("When a query succeeds", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/works" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("query") != "project scheduling" {
					t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
				}
				if r.URL.Query().Get("rows") != "2" {
					t.Errorf("unexpected rows %q", r.URL.Query().Get("rows"))
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(worksBody))
			}))
			defer srv.Close()

			client := biblio.New(biblio.WithBaseURL(srv.URL), biblio.WithRows(2))
			refs, err := client.Search(ctx, "project scheduling")

			convey.Convey("Then titled works are parsed and untitled ones dropped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(refs, convey.ShouldHaveLength, 1)
				convey.So(refs[0].Title, convey.ShouldEqual, "Resource-Constrained Project Scheduling")
				convey.So(refs[0].Authors, convey.ShouldEqual, "Rainer Kolisch")
				convey.So(refs[0].Venue, convey.ShouldEqual, "Management Science")
				convey.So(refs[0].Year, convey.ShouldEqual, 1995)
				convey.So(refs[0].DOI, convey.ShouldEqual, "10.1000/demo.1")
			})

			convey.Convey("Then the citation line is assembled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(refs[0].String(), convey.ShouldContainSubstring, "Kolisch")
				convey.So(refs[0].String(), convey.ShouldContainSubstring, "(1995)")
				convey.So(refs[0].String(), convey.ShouldContainSubstring, "doi:10.1000/demo.1")
			})
		})

		convey.Convey("When the endpoint returns an error status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			}))
			defer srv.Close()

			client := biblio.New(biblio.WithBaseURL(srv.URL))
			_, err := client.Search(ctx, "anything")

			convey.Convey("Then an error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestGather(t *testing.T) {
	convey.Convey("Given topics to look up", t, func() {
		ctx := context.Background()

		convey.Convey("When every lookup fails", func() {
			client := biblio.New(biblio.WithBaseURL("http://127.0.0.1:1"))
			refs := client.Gather(ctx, []string{"topic one", "topic two"})

			convey.Convey("Then the static bibliography is returned", func() {
				convey.So(refs, convey.ShouldNotBeEmpty)
				convey.So(refs[0].Title, convey.ShouldContainSubstring, "PMBOK")
			})
		})

		convey.Convey("When lookups succeed", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(worksBody))
			}))
			defer srv.Close()

			client := biblio.New(biblio.WithBaseURL(srv.URL))
			refs := client.Gather(ctx, []string{"topic one", "topic two"})

			convey.Convey("Then results from every topic accumulate", func() {
				convey.So(refs, convey.ShouldHaveLength, 2)
			})
		})
	})
}
