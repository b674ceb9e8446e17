package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"storyreel/internal/datauri"
	"storyreel/internal/llm"
	"storyreel/pkg/config"
)

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	calls int

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func (f *fakeGenerator) parts(t *testing.T) []*genai.Part {
	t.Helper()
	if len(f.contents) != 1 {
		t.Fatalf("len(contents) = %d, want 1", len(f.contents))
	}
	return f.contents[0].Parts
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func partsResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: parts}},
		},
	}
}

func storyJSON(n int, style string) string {
	var scenes []string
	for i := 1; i <= n; i++ {
		prompt := fmt.Sprintf(`{"subject":"%s lighthouse keeper","action":"climbs","environment":"storm","camera_movement":"crane up","lighting":"lightning","visual_style_tags":"moody"}`, style)
		scenes = append(scenes, fmt.Sprintf(`{"number":%d,"narration":"Waves crash.","tone":"tense","structuredPrompt1":%s,"structuredPrompt2":%s}`, i, prompt, prompt))
	}
	return fmt.Sprintf(`{"title":"The Keeper","numScenes":%d,"visualStyle":"%s","language":"English","scenes":[%s],"tiktokCover":"c1","youtubeCover":"c2","hashtags":["#sea"]}`,
		n, style, strings.Join(scenes, ","))
}

func TestGenerateStoryContent(t *testing.T) {
	fake := &fakeGenerator{resp: textResponse(storyJSON(3, "Watercolor"))}
	gw := NewGateway(fake, Options{})

	req := llm.StoryRequest{Title: "The Keeper", NumScenes: 3, VisualStyle: "Watercolor", Language: "English"}
	result, err := gw.GenerateStoryContent(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateStoryContent() error = %v", err)
	}

	if fake.model != defaultTextModel {
		t.Errorf("model = %q, want %q", fake.model, defaultTextModel)
	}
	if fake.config.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q, want application/json", fake.config.ResponseMIMEType)
	}
	if fake.config.ResponseSchema != StorySchema {
		t.Error("ResponseSchema is not StorySchema")
	}
	system := fake.config.SystemInstruction.Parts[0].Text
	if !strings.Contains(system, `Every 'subject' MUST start with: "Watercolor"`) {
		t.Errorf("system instruction missing style rule: %q", system)
	}

	parts := fake.parts(t)
	want := `Generate a high-quality cinematic storytelling script. Style: "Watercolor". Title: "The Keeper". Scenes: 3. Language: English`
	if len(parts) != 1 || parts[0].Text != want {
		t.Errorf("task prompt = %+v, want %q", parts, want)
	}

	if len(result.Scenes) != 3 {
		t.Fatalf("len(Scenes) = %d, want 3", len(result.Scenes))
	}
	for i, scene := range result.Scenes {
		if int(scene.Number) != i+1 {
			t.Errorf("Scenes[%d].Number = %d, want %d", i, scene.Number, i+1)
		}
	}
}

func TestGenerateStoryContentEmptyResponse(t *testing.T) {
	req := llm.StoryRequest{Title: "x", NumScenes: 2, VisualStyle: "Anime", Language: "English"}

	tests := []struct {
		name    string
		lenient bool
		wantErr error
	}{
		{name: "strict", lenient: false, wantErr: llm.ErrIncompleteResponse},
		{name: "lenient", lenient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := NewGateway(&fakeGenerator{resp: textResponse("")}, Options{Lenient: tt.lenient})

			result, err := gw.GenerateStoryContent(context.Background(), req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateStoryContent() error = %v", err)
			}
			if result == nil || len(result.Scenes) != 0 {
				t.Errorf("result = %+v, want empty record", result)
			}
		})
	}
}

func TestGenerateStoryContentProviderError(t *testing.T) {
	providerErr := errors.New("quota exceeded")
	gw := NewGateway(&fakeGenerator{err: providerErr}, Options{})

	_, err := gw.GenerateStoryContent(context.Background(), llm.StoryRequest{NumScenes: 1})
	if !errors.Is(err, providerErr) {
		t.Fatalf("error = %v, want wrapped provider error", err)
	}
	if !strings.HasPrefix(err.Error(), "generate: ") {
		t.Errorf("error = %q, want generate prefix", err.Error())
	}
}

func TestGenerateAffiliateContent(t *testing.T) {
	text := `{"summary":"s","caption":"c","assets":[
		{"label":"Hook","imagePrompt":"cup","videoPrompt":"speaking"},
		{"label":"Demo","imagePrompt":"pour","videoPrompt":"lip sync"},
		{"label":"CTA","imagePrompt":"pack","videoPrompt":"smile"}]}`
	fake := &fakeGenerator{resp: textResponse(text)}
	gw := NewGateway(fake, Options{TextModel: "custom-model", DialogueLanguage: "English"})

	product := datauri.Encode("image/jpeg", []byte("product-bytes"))
	model := datauri.Encode("image/png", []byte("model-bytes"))

	result, err := gw.GenerateAffiliateContent(context.Background(), llm.AffiliateRequest{
		ProductName:        "Herbal Tea",
		CustomInstructions: "Mention the lemongrass.",
		ProductImage:       product,
		ModelImage:         model,
		Style:              "cozy lo-fi",
		NumScenes:          3,
	})
	if err != nil {
		t.Fatalf("GenerateAffiliateContent() error = %v", err)
	}
	if len(result.Assets) != 3 {
		t.Fatalf("len(Assets) = %d, want 3", len(result.Assets))
	}

	if fake.model != "custom-model" {
		t.Errorf("model = %q, want custom-model", fake.model)
	}
	if fake.config.ResponseSchema != AffiliateSchema {
		t.Error("ResponseSchema is not AffiliateSchema")
	}
	if !strings.Contains(fake.config.SystemInstruction.Parts[0].Text, "narration in English") {
		t.Error("system instruction does not use configured dialogue language")
	}

	parts := fake.parts(t)
	if len(parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3", len(parts))
	}
	if !strings.Contains(parts[0].Text, `"Herbal Tea"`) || !strings.Contains(parts[0].Text, "Additional instructions: Mention the lemongrass.") {
		t.Errorf("task prompt = %q", parts[0].Text)
	}

	wantInline := []struct {
		mime string
		data string
	}{
		{mime: "image/jpeg", data: "product-bytes"},
		{mime: "image/png", data: "model-bytes"},
	}
	for i, want := range wantInline {
		blob := parts[i+1].InlineData
		if blob == nil {
			t.Fatalf("parts[%d] has no inline data", i+1)
		}
		if blob.MIMEType != want.mime || string(blob.Data) != want.data {
			t.Errorf("parts[%d] = %s %q, want %s %q", i+1, blob.MIMEType, blob.Data, want.mime, want.data)
		}
	}
}

func TestGenerateAffiliateContentWithoutImages(t *testing.T) {
	fake := &fakeGenerator{resp: textResponse(`{"summary":"s","caption":"c","assets":[{"label":"l","imagePrompt":"i","videoPrompt":"v"}]}`)}
	gw := NewGateway(fake, Options{})

	if _, err := gw.GenerateAffiliateContent(context.Background(), llm.AffiliateRequest{ProductName: "Mug", NumScenes: 1}); err != nil {
		t.Fatalf("GenerateAffiliateContent() error = %v", err)
	}
	if parts := fake.parts(t); len(parts) != 1 {
		t.Errorf("len(parts) = %d, want 1", len(parts))
	}
	if strings.Contains(fake.parts(t)[0].Text, "Additional instructions") {
		t.Error("task prompt should omit empty custom instructions")
	}
}

func TestGenerateAffiliateContentMalformedImage(t *testing.T) {
	fake := &fakeGenerator{}
	gw := NewGateway(fake, Options{})

	_, err := gw.GenerateAffiliateContent(context.Background(), llm.AffiliateRequest{ProductImage: "not-a-data-uri", NumScenes: 1})
	if !errors.Is(err, datauri.ErrMalformed) {
		t.Fatalf("error = %v, want ErrMalformed", err)
	}
	if fake.calls != 0 {
		t.Errorf("provider called %d times, want 0", fake.calls)
	}
}

func TestGenerateImage(t *testing.T) {
	tests := []struct {
		name       string
		req        llm.ImageRequest
		resp       *genai.GenerateContentResponse
		wantRatio  string
		wantPrefix string
		wantErr    error
		wantCalls  int
	}{
		{
			name:       "widescreen",
			req:        llm.ImageRequest{Prompt: "a red bicycle", AspectRatio: llm.AspectWidescreen},
			resp:       partsResponse(&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png")}}),
			wantRatio:  "16:9",
			wantPrefix: "data:image/png;base64,",
			wantCalls:  1,
		},
		{
			name:       "defaultRatio",
			req:        llm.ImageRequest{Prompt: "a cat"},
			resp:       partsResponse(&genai.Part{InlineData: &genai.Blob{Data: []byte("png")}}),
			wantRatio:  "1:1",
			wantPrefix: "data:image/png;base64,",
			wantCalls:  1,
		},
		{
			name: "firstInlinePartWinsAlwaysPNG",
			req:  llm.ImageRequest{Prompt: "a dog", AspectRatio: llm.AspectVertical},
			resp: partsResponse(
				&genai.Part{Text: "Here is your image"},
				&genai.Part{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte("jpg")}},
				&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png")}},
			),
			wantRatio:  "9:16",
			wantPrefix: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("jpg")),
			wantCalls:  1,
		},
		{
			name:      "textOnly",
			req:       llm.ImageRequest{Prompt: "a dog"},
			resp:      textResponse("I cannot draw that"),
			wantErr:   llm.ErrNoImage,
			wantCalls: 1,
		},
		{
			name:      "noCandidates",
			req:       llm.ImageRequest{Prompt: "a dog"},
			resp:      &genai.GenerateContentResponse{},
			wantErr:   llm.ErrNoImage,
			wantCalls: 1,
		},
		{
			name:      "invalidRatio",
			req:       llm.ImageRequest{Prompt: "a dog", AspectRatio: "2:1"},
			wantErr:   llm.ErrInvalidAspectRatio,
			wantCalls: 0,
		},
		{
			name:      "malformedReference",
			req:       llm.ImageRequest{Prompt: "a dog", ReferenceImage: "data:image/png;base64"},
			wantErr:   datauri.ErrMalformed,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGenerator{resp: tt.resp}
			gw := NewGateway(fake, Options{})

			got, err := gw.GenerateImage(context.Background(), tt.req)
			if fake.calls != tt.wantCalls {
				t.Errorf("provider calls = %d, want %d", fake.calls, tt.wantCalls)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateImage() error = %v", err)
			}

			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("GenerateImage() = %q, want prefix %q", got, tt.wantPrefix)
			}
			if fake.model != defaultImageModel {
				t.Errorf("model = %q, want %q", fake.model, defaultImageModel)
			}
			if fake.config.ImageConfig == nil || fake.config.ImageConfig.AspectRatio != tt.wantRatio {
				t.Errorf("ImageConfig = %+v, want aspect ratio %q", fake.config.ImageConfig, tt.wantRatio)
			}
		})
	}
}

func TestGenerateImageReferenceAndPrefix(t *testing.T) {
	fake := &fakeGenerator{resp: partsResponse(&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("out")}})}
	gw := NewGateway(fake, Options{})

	ref := datauri.Encode("image/webp", []byte("ref"))
	if _, err := gw.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "a red bicycle", ReferenceImage: ref}); err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}

	parts := fake.parts(t)
	if len(parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(parts))
	}
	want := "High quality cinematic photo, strictly follow the visual identity of the attached image. a red bicycle"
	if parts[0].Text != want {
		t.Errorf("prompt = %q, want %q", parts[0].Text, want)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/webp" || string(parts[1].InlineData.Data) != "ref" {
		t.Errorf("reference part = %+v", parts[1].InlineData)
	}
}

func newTestConfig(baseURL string) *config.Config {
	return &config.Config{
		GeminiAPIKey: "test-key",
		Gemini: config.GeminiConfig{
			Backend:    config.BackendGemini,
			TextModel:  "text-model",
			ImageModel: "image-model",
			Timeout:    10 * time.Second,
			BaseURL:    baseURL + "/",
		},
	}
}

func TestNewClientImageRoundTrip(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role": "model",
					"parts": []any{map[string]any{
						"inlineData": map[string]any{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString([]byte("fake-png")),
						},
					}},
				},
			}},
		})
	}))
	defer server.Close()

	gw, err := NewClient(context.Background(), newTestConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	got, err := gw.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "a red bicycle", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}

	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake-png"))
	if got != want {
		t.Errorf("GenerateImage() = %q, want %q", got, want)
	}
	if !strings.HasSuffix(gotPath, "models/image-model:generateContent") {
		t.Errorf("path = %q, want image-model generateContent", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q, want test-key", gotKey)
	}
}

func TestNewClientRetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": storyJSON(1, "Pixel art")}},
				},
			}},
		})
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.Retry = config.RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	gw, err := NewClient(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	result, err := gw.GenerateStoryContent(context.Background(), llm.StoryRequest{Title: "The Keeper", NumScenes: 1, VisualStyle: "Pixel art", Language: "English"})
	if err != nil {
		t.Fatalf("GenerateStoryContent() error = %v", err)
	}
	if len(result.Scenes) != 1 {
		t.Errorf("len(Scenes) = %d, want 1", len(result.Scenes))
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestNewClientNoRetryByDefault(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
	}))
	defer server.Close()

	gw, err := NewClient(context.Background(), newTestConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := gw.GenerateStoryContent(context.Background(), llm.StoryRequest{NumScenes: 1}); err == nil {
		t.Fatal("expected error from failing provider")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}
