package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/chunker"
	"github.com/lk2023060901/zhi-text-evaluator/internal/streamclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer 记录最近一次分析请求
type fakeServer struct {
	*httptest.Server
	lastAnalysis types.AnalysisRequest
	lastChat     types.ChatRequest
	failAnalysis bool
}

func sseFrame(v interface{}) string {
	data, _ := json.Marshal(v)
	return "data: " + string(data) + "\n\n"
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"filename":  "long.txt",
			"content":   "a b c d",
			"wordCount": 4,
			"chunks": []chunker.TextChunk{
				{ID: "c-1", Content: "a b", WordCount: 2, StartIndex: 0, EndIndex: 1},
				{ID: "c-2", Content: "c d", WordCount: 2, StartIndex: 2, EndIndex: 3},
			},
		})
	})
	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&fs.lastAnalysis)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": keep-alive\n\n")
		_, _ = io.WriteString(w, sseFrame(streamclient.Event{ID: "r", Status: types.StatusStarting}))
		_, _ = io.WriteString(w, sseFrame(streamclient.Event{ID: "r", Status: types.StatusStreaming, Content: "Score "}))
		if fs.failAnalysis {
			_, _ = io.WriteString(w, sseFrame(streamclient.Event{ID: "r", Status: types.StatusError, Content: "Analysis failed: ZHI 1 failed: boom"}))
			return
		}
		_, _ = io.WriteString(w, sseFrame(streamclient.Event{ID: "r", Status: types.StatusStreaming, Content: "80"}))
		_, _ = io.WriteString(w, sseFrame(streamclient.Event{ID: "r", Status: types.StatusCompleted, Content: "Score 80"}))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&fs.lastChat)
		_, _ = io.WriteString(w, sseFrame(streamclient.Event{Status: types.StatusStarting}))
		_, _ = io.WriteString(w, sseFrame(streamclient.Event{Status: types.StatusStreaming, Content: "Because."}))
		_, _ = io.WriteString(w, sseFrame(streamclient.Event{Status: types.StatusCompleted, Content: "Because."}))
	})
	mux.HandleFunc("/api/analyses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"analyses":[{"id":"r","status":"completed","mode":"cognitive-short","provider":"zhi1","content":"Score 80"}]}`)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)

	old := newConsumer
	newConsumer = func() *streamclient.Consumer { return streamclient.New(fs.URL) }
	t.Cleanup(func() { newConsumer = old })
	return fs
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		analyzeFile, analyzeChunks, analyzeOutput, analyzePrevious = "", nil, "", ""
		analyzeContext, analyzeCritique = "", ""
		analyzeMode, analyzeProvider = string(types.ModeCognitiveShort), string(types.Zhi1)
		uploadJSON, recentJSON = false, false
		chatAnalysis, chatInput, chatMode = "", "", ""
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAnalyzeCmd_Text(t *testing.T) {
	fs := newFakeServer(t)

	out, err := run(t, "analyze", "--mode", "psychological-long", "--provider", "zhi3", "some text")
	require.NoError(t, err)
	assert.Equal(t, "Score 80\n", out)
	assert.Equal(t, types.ModePsychologicalLong, fs.lastAnalysis.Mode)
	assert.Equal(t, types.Zhi3, fs.lastAnalysis.Provider)
	assert.Equal(t, "some text", fs.lastAnalysis.Text)
}

func TestAnalyzeCmd_ErrorEvent(t *testing.T) {
	fs := newFakeServer(t)
	fs.failAnalysis = true

	out, err := run(t, "analyze", "x")
	require.Error(t, err)
	assert.Equal(t, "Analysis failed: ZHI 1 failed: boom", err.Error())
	assert.Contains(t, out, "Score ")
}

func TestAnalyzeCmd_ChunkSelection(t *testing.T) {
	fs := newFakeServer(t)
	doc := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(doc, []byte("a b c d"), 0o600))

	_, err := run(t, "analyze", "--file", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select chunks with --chunk")

	_, err = run(t, "analyze", "--file", doc, "--chunk", "2,c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c d", "a b"}, fs.lastAnalysis.Chunks)
	assert.Equal(t, "a b c d", fs.lastAnalysis.Text)
}

func TestAnalyzeCmd_Validation(t *testing.T) {
	newFakeServer(t)

	_, err := run(t, "analyze")
	assert.Error(t, err)

	_, err = run(t, "analyze", "--mode", "nope", "text")
	assert.ErrorIs(t, err, types.ErrInvalidMode)
}

func TestAnalyzeCmd_Revision(t *testing.T) {
	fs := newFakeServer(t)
	prev := filepath.Join(t.TempDir(), "prev.txt")
	require.NoError(t, os.WriteFile(prev, []byte("Score 60\n"), 0o600))

	_, err := run(t, "analyze", "--critique", "too harsh", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--previous and --critique must be used together")

	_, err = run(t, "analyze", "--previous", prev, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--previous and --critique must be used together")
	assert.Empty(t, fs.lastAnalysis.Text)

	blank := filepath.Join(t.TempDir(), "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte(" \n"), 0o600))
	_, err = run(t, "analyze", "--previous", blank, "--critique", "too harsh", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")

	_, err = run(t, "analyze", "--previous", prev, "--critique", "too harsh", "text")
	require.NoError(t, err)
	assert.Equal(t, "Score 60", fs.lastAnalysis.PreviousAnalysis)
	assert.Equal(t, "too harsh", fs.lastAnalysis.Critique)
}

func TestAnalyzeCmd_SaveOutput(t *testing.T) {
	newFakeServer(t)
	path := filepath.Join(t.TempDir(), "result.txt")

	out, err := run(t, "analyze", "-o", path, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "saved to")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Score 80", string(data))
}

func TestSelectChunks(t *testing.T) {
	chunks := []*chunker.TextChunk{{ID: "x", Content: "one"}, {ID: "y", Content: "two"}}

	got, err := selectChunks(10, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = selectChunks(10, nil, []string{"1"})
	assert.Error(t, err)

	got, err = selectChunks(2000, chunks, []string{"y", "1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, got)

	_, err = selectChunks(2000, chunks, []string{"3"})
	assert.Error(t, err)
}

func TestUploadCmd(t *testing.T) {
	newFakeServer(t)
	path := filepath.Join(t.TempDir(), "long.txt")
	require.NoError(t, os.WriteFile(path, []byte("a b c d"), 0o600))

	out, err := run(t, "upload", path)
	require.NoError(t, err)
	assert.Contains(t, out, "long.txt: 4 words")
	assert.Contains(t, out, "2 chunks")
	assert.Contains(t, out, "[1] c-1")
}

func TestChatCmd(t *testing.T) {
	fs := newFakeServer(t)
	analysis := filepath.Join(t.TempDir(), "analysis.txt")
	require.NoError(t, os.WriteFile(analysis, []byte("Score 80"), 0o600))

	out, err := run(t, "chat", "--analysis", analysis, "why?")
	require.NoError(t, err)
	assert.Equal(t, "Because.\n", out)
	assert.Equal(t, "why?", fs.lastChat.Message)
	require.NotNil(t, fs.lastChat.Context)
	assert.Equal(t, "Score 80", fs.lastChat.Context.AnalysisOutput)
}

func TestRecentCmd(t *testing.T) {
	newFakeServer(t)

	out, err := run(t, "recent", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.True(t, strings.Contains(out, "Score 80"))
}
