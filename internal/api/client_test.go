package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL}, nil), server
}

func TestUploadAudioPostsMultipart(t *testing.T) {
	t.Parallel()

	var gotField string
	var gotFilename string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audios/", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotField = "file"
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "a1", "filename": header.Filename})
	}))

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFfakeaudio"), 0o600))

	uploaded, err := client.UploadAudio(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "a1", uploaded.ID)
	require.Equal(t, "clip.wav", uploaded.Filename)
	require.Equal(t, "file", gotField)
	require.Equal(t, "clip.wav", gotFilename)
}

func TestUploadAudioUnsupportedMedia(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "unsupported audio format"})
	}))

	path := filepath.Join(t.TempDir(), "clip.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o600))

	_, err := client.UploadAudio(context.Background(), path)
	require.Error(t, err)
	require.True(t, IsUnsupportedMedia(err))
	require.Contains(t, err.Error(), "unsupported audio format")
}

func TestFetchTranscriptNormalizes(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/audios/a1/transcript", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"corrected_transcript": "  xin chao  ",
			"detected_language":    " VI ",
		})
	}))

	payload, err := client.FetchTranscript(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "xin chao", payload.Text)
	require.Equal(t, "vi", payload.DetectedLanguage)
}

func TestFetchTranscriptNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "audio not found"})
	}))

	_, err := client.FetchTranscript(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestUpdateTranscriptPutsJSON(t *testing.T) {
	t.Parallel()

	var body map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/audios/a1/transcript", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, client.UpdateTranscript(context.Background(), "a1", "sua lai"))
	require.Equal(t, "sua lai", body["transcript"])
}

func TestTranslatePostsTargetLanguage(t *testing.T) {
	t.Parallel()

	var body map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audios/a1/translate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"translated_text": " hello "})
	}))

	translated, err := client.Translate(context.Background(), "a1", "en")
	require.NoError(t, err)
	require.Equal(t, "hello", translated)
	require.Equal(t, "en", body["target_language"])
}

func TestConvertVoiceResolvesRelativeURL(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audios/a1/voice-conversion", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"converted_audio_url": "/static/converted/a1.wav"})
	}))

	converted, err := client.ConvertVoice(context.Background(), "a1", "en")
	require.NoError(t, err)
	require.Equal(t, server.URL+"/static/converted/a1.wav", converted)
}

func TestConvertVoiceKeepsAbsoluteURL(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"converted_audio_url": "https://cdn.example.com/a1.wav"})
	}))

	converted, err := client.ConvertVoice(context.Background(), "a1", "en")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a1.wav", converted)
}

func TestConvertVoiceRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))

	_, err := client.ConvertVoice(context.Background(), "a1", "en")
	require.Error(t, err)
}

func TestFetchAudioFollowsRelativeURL(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/static/converted/a1.wav", r.URL.Path)
		_, _ = w.Write([]byte("converted-bytes"))
	}))

	data, err := client.FetchAudio(context.Background(), "/static/converted/a1.wav")
	require.NoError(t, err)
	require.Equal(t, []byte("converted-bytes"), data)
}

func TestFetchAudioSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.FetchAudio(context.Background(), "/static/gone.wav")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestDecodeAPIErrorPlainBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("worker crashed\n"))
	}))

	_, err := client.FetchTranscript(context.Background(), "a1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "worker crashed")
}
