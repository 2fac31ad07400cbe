package describer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ilkoid/poncho-inventory/pkg/config"
	"github.com/ilkoid/poncho-inventory/pkg/llm"
	"github.com/ilkoid/poncho-inventory/pkg/llm/openai"
	"github.com/ilkoid/poncho-inventory/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider запоминает последний запрос и отвечает заготовкой.
type fakeProvider struct {
	calls    int
	messages []llm.Message
	opts     llm.GenerateOptions
	reply    string
	err      error
}

func (f *fakeProvider) Generate(_ context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	f.calls++
	f.messages = messages
	f.opts = llm.Apply(llm.GenerateOptions{}, opts...)
	if f.err != nil {
		return llm.Message{}, f.err
	}
	if f.opts.OnUsage != nil {
		f.opts.OnUsage(llm.Usage{TotalTokens: 77})
	}
	return llm.Message{Role: llm.RoleAssistant, Content: f.reply}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDescribe_BuildsSingleRequest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shirt1")
	require.NoError(t, os.Mkdir(dir, 0o755))
	paths := []string{
		writeFile(t, dir, "a.jpg", "jpg"),
		writeFile(t, dir, "b.png", "png"),
		writeFile(t, dir, "c.webp", "webp"),
	}
	last := filepath.Join(t.TempDir(), "description.txt")

	fp := &fakeProvider{reply: "Camicia bianca."}
	g := New(fp, Options{LastOutputPath: last, RequireImages: true})

	res, err := g.Describe(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, "Camicia bianca.", res.Text)
	assert.Equal(t, 3, res.Attached)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 77, res.Usage.TotalTokens)

	assert.Equal(t, 1, fp.calls)
	require.Len(t, fp.messages, 1)
	msg := fp.messages[0]
	assert.Equal(t, llm.RoleUser, msg.Role)
	assert.Contains(t, msg.Content, "Vinted")
	require.Len(t, msg.Images, 3)
	assert.True(t, strings.HasPrefix(msg.Images[0], "data:image/jpeg;base64,"))
	assert.True(t, strings.HasPrefix(msg.Images[1], "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(msg.Images[2], "data:image/webp;base64,"))
	assert.Zero(t, fp.opts.MaxTokens, "default prompt leaves the budget to the model definition")

	written, err := os.ReadFile(last)
	require.NoError(t, err)
	assert.Equal(t, "Camicia bianca.", string(written))
}

func TestDescribe_SkipsBrokenImages(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.jpg", "jpg")
	missing := filepath.Join(dir, "gone.jpg")

	fp := &fakeProvider{reply: "Ok."}
	g := New(fp, Options{RequireImages: true})

	res, err := g.Describe(context.Background(), []string{missing, good})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Attached)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, missing, res.Skipped[0].Path)
	assert.Len(t, fp.messages[0].Images, 1)
}

func TestDescribe_AllImagesBroken(t *testing.T) {
	dir := t.TempDir()
	broken := []string{filepath.Join(dir, "x.jpg"), filepath.Join(dir, "y.png")}

	t.Run("guarded", func(t *testing.T) {
		fp := &fakeProvider{reply: "should not be called"}
		g := New(fp, Options{RequireImages: true})

		res, err := g.Describe(context.Background(), broken)
		assert.True(t, errors.Is(err, ErrNoImagesAttached))
		assert.Len(t, res.Skipped, 2)
		assert.Equal(t, 0, fp.calls)
	})

	t.Run("text only request when not required", func(t *testing.T) {
		fp := &fakeProvider{reply: "Nessuna immagine."}
		g := New(fp, Options{})

		res, err := g.Describe(context.Background(), broken)
		require.NoError(t, err)
		assert.Equal(t, "Nessuna immagine.", res.Text)
		assert.Equal(t, 1, fp.calls)
		assert.Empty(t, fp.messages[0].Images)
	})
}

func TestDescribe_ProviderError(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "a.jpg", "jpg")
	last := filepath.Join(dir, "last.txt")

	apiErr := errors.New("401 unauthorized")
	g := New(&fakeProvider{err: apiErr}, Options{LastOutputPath: last})

	_, err := g.Describe(context.Background(), []string{img})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
	assert.True(t, errors.Is(err, apiErr))

	_, statErr := os.Stat(last)
	assert.True(t, os.IsNotExist(statErr), "last output must not be written on failure")
}

func TestDescribe_EmptyCompletion(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "a.jpg", "jpg")

	g := New(&fakeProvider{reply: "  \n"}, Options{})

	_, err := g.Describe(context.Background(), []string{img})
	assert.True(t, errors.Is(err, ErrGeneration))
}

func TestDescribe_PromptOverrides(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "coat7")
	require.NoError(t, os.Mkdir(dir, 0o755))
	img := writeFile(t, dir, "a.jpg", "jpg")

	pf := &prompt.PromptFile{
		Config: prompt.PromptConfig{Model: "gpt-4o-mini", MaxTokens: 250},
		Messages: []prompt.Message{
			{Role: "system", Content: "Short answers."},
			{Role: "user", Content: "Item {{.FolderName}}, {{.ImageCount}} photo(s)."},
			{Role: "assistant", Content: "Ready."},
		},
	}

	fp := &fakeProvider{reply: "Cappotto."}
	g := New(fp, Options{Prompt: pf})

	_, err := g.Describe(context.Background(), []string{img})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", fp.opts.Model)
	assert.Equal(t, 250, fp.opts.MaxTokens)
	require.Len(t, fp.messages, 3)
	assert.Equal(t, "Item coat7, 1 photo(s).", fp.messages[1].Content)
	assert.Len(t, fp.messages[1].Images, 1, "images go to the last user message")
	assert.Empty(t, fp.messages[2].Images)
}

func TestDescribe_ModelMaxTokensWithDefaultPrompt(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Errorf("bad request json: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Giacca."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`)
	}))
	defer srv.Close()

	client := openai.NewClient(config.ModelDef{
		APIKey:    "test-key",
		ModelName: "gpt-4o",
		BaseURL:   srv.URL + "/v1",
		MaxTokens: 2000,
	})

	dir := t.TempDir()
	img := writeFile(t, dir, "a.jpg", "jpg")

	res, err := New(client, Options{}).Describe(context.Background(), []string{img})
	require.NoError(t, err)

	assert.Equal(t, "Giacca.", res.Text)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.Equal(t, "gpt-4o", got.Model)
}
