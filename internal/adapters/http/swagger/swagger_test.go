package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"go.yaml.in/yaml/v3"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the swagger handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should handle /openapi.yaml route", func() {
				req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.Len(), convey.ShouldBeGreaterThan, 0)
			})

			convey.Convey("And it should handle /api-docs route", func() {
				req := httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `spec-url="/openapi.yaml"`)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `src="`+redocScript+`"`)
				convey.So(redocScript, convey.ShouldNotContainSubstring, "latest")
			})
		})

		convey.Convey("When a nil mux is passed", func() {
			convey.Convey("Then registration should panic", func() {
				convey.So(func() { Register(ctx, nil) }, convey.ShouldPanic)
			})
		})
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("Given the embedded OpenAPI document", t, func() {
		var doc struct {
			OpenAPI string                    `yaml:"openapi"`
			Paths   map[string]map[string]any `yaml:"paths"`
		}

		convey.Convey("When parsing it", func() {
			err := yaml.Unmarshal(OpenAPI, &doc)

			convey.Convey("Then every route should be documented", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(doc.OpenAPI, convey.ShouldStartWith, "3.")
				for path, method := range map[string]string{
					"/interactions":           "post",
					"/signals/{topic}":        "post",
					"/profiles/{user}":        "get",
					"/profiles/{user}/decay":  "post",
					"/content":                "post",
					"/content/{id}":           "delete",
					"/recommendations/{user}": "get",
					"/xp":                     "post",
					"/achievements":           "post",
					"/gamification/{user}":    "get",
					"/leaderboard":            "get",
					"/rank/{user}":            "get",
					"/stats":                  "get",
					"/healthz":                "get",
				} {
					convey.So(doc.Paths, convey.ShouldContainKey, path)
					convey.So(doc.Paths[path], convey.ShouldContainKey, method)
				}
			})
		})
	})
}
