package llm

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server   *ghttp.Server
		provider *Ollama
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var err error
		provider, err = NewOllama(server.URL(), "llava")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Generate", func() {
		var (
			req  Request
			resp Response
			err  error
		)

		BeforeEach(func() {
			req = Request{
				System: "You are a grocery assistant.",
				Prompt: "List the items.",
			}
		})

		JustBeforeEach(func() {
			resp, err = provider.Generate(context.Background(), req)
		})

		When("the server responds with a message", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/chat"),
					ghttp.VerifyContentType("application/json"),
					ghttp.VerifyJSONRepresenting(ollamaChatRequest{
						Model:  "llava",
						Stream: false,
						Messages: []ollamaMessage{
							{Role: "system", Content: "You are a grocery assistant."},
							{Role: "user", Content: "List the items."},
						},
					}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
						Message: ollamaMessage{Role: "assistant", Content: "  milk, eggs  "},
						Done:    true,
					}),
				))
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the trimmed message content", func() {
				Expect(resp.Text).To(Equal("milk, eggs"))
			})
		})

		When("the request carries an image", func() {
			BeforeEach(func() {
				req.Images = []Image{{Format: "png", Data: []byte{0x89, 0x50}}}
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/chat"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
						Message: ollamaMessage{Role: "assistant", Content: "# Receipt"},
						Done:    true,
					}),
				))
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the response text", func() {
				Expect(resp.Text).To(Equal("# Receipt"))
			})
		})

		When("the server returns a non-200 status", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
			})

			It("returns the error with the body", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("model not loaded"))
			})
		})
	})

	Describe("NewOllama", func() {
		It("should default the base URL and model", func() {
			p, err := NewOllama("", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.baseURL).To(Equal("http://localhost:11434"))
			Expect(p.model).To(Equal("llava"))
		})

		It("should trim a trailing slash from the base URL", func() {
			p, err := NewOllama("http://example.com:11434/", "llava")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.baseURL).To(Equal("http://example.com:11434"))
		})
	})
})
