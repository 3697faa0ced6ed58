package grocery

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		ledger      *mockLedger
		sink        *mockSink
		auth        BasicAuth
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		ledger = newMockLedger()
		sink = newMockSink()
		auth = BasicAuth{}
		server = NewServerWithMux(ledger, sink, auth, http.NewServeMux())
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleIndex", func() {
		It("should return status OK", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		It("should return HTML containing Grocery Tracker", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("Grocery Tracker"))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
		})
	})

	Describe("handleInventory", func() {
		When("a snapshot exists", func() {
			var takenAt time.Time

			BeforeEach(func() {
				takenAt = time.Date(2025, 3, 2, 10, 5, 0, 0, time.UTC)
				ledger.snapshot = &InventorySnapshot{
					RunID:   "run-1",
					TakenAt: takenAt,
					Items: []Item{
						{ItemName: "Milk", Count: 1, Unit: "gallon", ExpirationDate: time.Now().AddDate(0, 0, 5).Format("2006-01-02")},
						{ItemName: "Flour", Count: 1, Unit: "kg"},
					},
				}
			})

			It("should return status OK", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/inventory")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return the snapshot items", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/inventory")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var view InventoryView
				Expect(json.NewDecoder(resp.Body).Decode(&view)).To(Succeed())
				Expect(view.RunID).To(Equal("run-1"))
				Expect(view.Items).To(HaveLen(2))
			})

			It("should compute the days until expiration", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/inventory")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var view InventoryView
				Expect(json.NewDecoder(resp.Body).Decode(&view)).To(Succeed())
				Expect(view.Items[0].DaysUntilExpiration).NotTo(BeNil())
				Expect(*view.Items[0].DaysUntilExpiration).To(Equal(5))
			})

			It("should leave days unset for items without an expiration date", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/inventory")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var view InventoryView
				Expect(json.NewDecoder(resp.Body).Decode(&view)).To(Succeed())
				Expect(view.Items[1].DaysUntilExpiration).To(BeNil())
			})
		})

		When("no snapshot has been recorded", func() {
			BeforeEach(func() {
				ledger.getInventoryErr = errors.New("no inventory snapshot recorded")
			})

			It("should return an empty item list", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/inventory")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var view InventoryView
				Expect(json.NewDecoder(resp.Body).Decode(&view)).To(Succeed())
				Expect(view.Items).To(BeEmpty())
				Expect(view.RunID).To(BeEmpty())
			})
		})
	})

	Describe("handleListRuns", func() {
		When("runs exist", func() {
			BeforeEach(func() {
				ledger.runs["run-1"] = &RunRecord{ID: "run-1", StartedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
				ledger.runs["run-2"] = &RunRecord{ID: "run-2", StartedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)}
			})

			It("should return status OK", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/runs")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return the runs newest first", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/runs")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var runs []*RunRecord
				Expect(json.NewDecoder(resp.Body).Decode(&runs)).To(Succeed())
				Expect(runs).To(HaveLen(2))
				Expect(runs[0].ID).To(Equal("run-2"))
				Expect(runs[1].ID).To(Equal("run-1"))
			})
		})

		When("no runs exist", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/runs")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				var runs []*RunRecord
				Expect(json.Unmarshal(body, &runs)).To(Succeed())
				Expect(runs).To(BeEmpty())
				Expect(string(body)).NotTo(ContainSubstring("null"))
			})
		})

		When("the ledger fails", func() {
			BeforeEach(func() {
				ledger.listErr = errors.New("database closed")
			})

			It("should return status Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/runs")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleRecipes", func() {
		When("a recipe file exists", func() {
			BeforeEach(func() {
				sink.files[RecipeFile] = []byte(stageRecipesJSON)
			})

			It("should serve the file as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/recipes")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
				var recipes RecipeRecommendations
				Expect(json.NewDecoder(resp.Body).Decode(&recipes)).To(Succeed())
				Expect(recipes.Recipes).To(HaveLen(1))
				Expect(recipes.Recipes[0].RecipeName).To(Equal("Scrambled Eggs"))
			})
		})

		When("no recipe file exists", func() {
			It("should return an empty recommendation set", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/recipes")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(MatchJSON(`{"recipes": [], "restock_recommendations": []}`))
			})
		})
	})

	Describe("handleExpenses", func() {
		When("a history file exists", func() {
			BeforeEach(func() {
				sink.files[ExpenseHistoryFile] = []byte(`{"expenses": [{"date": "2025-03-02", "total_cents": 4297, "categories": {}}], "categories": {}, "monthly_summaries": {}}`)
			})

			It("should serve the file as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/expenses")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var history ExpenseHistory
				Expect(json.NewDecoder(resp.Body).Decode(&history)).To(Succeed())
				Expect(history.Expenses).To(HaveLen(1))
				Expect(history.Expenses[0].TotalCents).To(Equal(4297))
			})
		})

		When("no history file exists", func() {
			It("should return the default structure", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/expenses")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(MatchJSON(`{"expenses": [], "categories": {}, "monthly_summaries": {}}`))
			})
		})
	})

	Describe("authenticate", func() {
		var result bool

		When("no auth is configured", func() {
			It("should return true", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/", nil)
				Expect(err).NotTo(HaveOccurred())
				result = server.authenticate(req)
				Expect(result).To(BeTrue())
			})
		})

		When("valid credentials are provided", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				server = NewServerWithMux(ledger, sink, auth, http.NewServeMux())
				setupServer()
			})

			It("should return true", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/", nil)
				Expect(err).NotTo(HaveOccurred())
				credentials := base64.StdEncoding.EncodeToString([]byte("user:pass"))
				req.Header.Set("Authorization", "Basic "+credentials)
				result = server.authenticate(req)
				Expect(result).To(BeTrue())
			})
		})

		When("invalid credentials are provided", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				server = NewServerWithMux(ledger, sink, auth, http.NewServeMux())
				setupServer()
			})

			It("should return false", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/", nil)
				Expect(err).NotTo(HaveOccurred())
				credentials := base64.StdEncoding.EncodeToString([]byte("user:wrong"))
				req.Header.Set("Authorization", "Basic "+credentials)
				result = server.authenticate(req)
				Expect(result).To(BeFalse())
			})
		})

		When("no authorization header is provided", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				server = NewServerWithMux(ledger, sink, auth, http.NewServeMux())
				setupServer()
			})

			It("should return false", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/", nil)
				Expect(err).NotTo(HaveOccurred())
				result = server.authenticate(req)
				Expect(result).To(BeFalse())
			})
		})
	})

	Describe("requireAuth", func() {
		When("the request is unauthorized", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				server = NewServerWithMux(ledger, sink, auth, http.NewServeMux())
				setupServer()
			})

			It("should return status Unauthorized", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/inventory")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				resp.Body.Close()
			})

			It("should set the WWW-Authenticate header", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/inventory")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.Header.Get("WWW-Authenticate")).NotTo(BeEmpty())
			})
		})

		When("the request carries valid credentials", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				server = NewServerWithMux(ledger, sink, auth, http.NewServeMux())
				setupServer()
			})

			It("should serve the request", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/inventory", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("user", "pass")
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})
		})
	})
})
