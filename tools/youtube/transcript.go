// Package youtube provides a tool that downloads the caption
// transcript of a YouTube video.
package youtube

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/tools"
	"github.com/effective-security/xlog"
	"github.com/tidwall/gjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "youtube")

// ToolName is the dispatch key of the transcript tool.
const ToolName = "download_youtube_transcript"

// MaxTranscriptLength caps the returned transcript in runes.
const MaxTranscriptLength = 4000

const (
	defaultBaseURL = "https://www.youtube.com"
	requestTimeout = 60 * time.Second

	playerResponseMarker = "ytInitialPlayerResponse = "
	captionTracksPath    = "captions.playerCaptionsTracklistRenderer.captionTracks"
)

// Request is the tool input.
type Request struct {
	VideoURL string `json:"video_url" jsonschema:"description=The URL of the YouTube video."`
}

// Result is the tool output. Content holds either the transcript text
// or an error message the model can act on.
type Result struct {
	Content string `json:"content"`
}

func (r *Result) String() string {
	return r.Content
}

// Tool downloads the caption transcript of a video, preferring German
// or English captions.
type Tool struct {
	name        string
	description string

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New returns the transcript tool.
func New() *Tool {
	return &Tool{
		name:        ToolName,
		description: "Download the available transcript (preferring German or English) for a given YouTube video URL. Returns the first 4000 characters of the transcript text or an error message.",
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

// WithBaseURL overrides the YouTube host.
func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

// WithHTTPClient overrides the HTTP client.
func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(Request{}))
}

// Run resolves the video ID, locates a caption track and fetches it.
// All failures are reported in the result content so the agent can
// decide how to proceed.
func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	videoID, errMsg := ExtractVideoID(req.VideoURL)
	if errMsg != "" {
		return &Result{Content: errMsg}, nil
	}

	transcript, err := t.fetchTranscript(ctx, videoID)
	if err != nil {
		if errors.Is(err, errNoTranscript) {
			return &Result{Content: "Error: No transcript found for this video or transcripts are disabled."}, nil
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.name,
			"status", "fetch_failed",
			"video_id", videoID,
			"err", err.Error(),
		)
		return &Result{Content: "An unexpected error occurred: " + err.Error()}, nil
	}
	return &Result{Content: llmutils.Truncate(transcript, MaxTranscriptLength)}, nil
}

// ExtractVideoID parses the video ID out of the common YouTube URL
// shapes. A non-empty second return value is the error message to
// surface to the model.
func ExtractVideoID(videoURL string) (string, string) {
	parsed, err := url.Parse(videoURL)
	if err != nil {
		return "", "Error: Invalid YouTube URL."
	}

	var videoID string
	switch parsed.Hostname() {
	case "youtu.be":
		videoID = strings.TrimPrefix(parsed.Path, "/")
	case "www.youtube.com", "youtube.com":
		switch {
		case parsed.Path == "/watch":
			videoID = parsed.Query().Get("v")
		case strings.HasPrefix(parsed.Path, "/embed/") || strings.HasPrefix(parsed.Path, "/v/"):
			parts := strings.Split(parsed.Path, "/")
			if len(parts) > 2 {
				videoID = parts[2]
			}
		default:
			return "", "Error: Could not extract video ID from URL."
		}
	default:
		return "", "Error: Invalid YouTube URL."
	}

	if videoID == "" {
		return "", "Error: Could not extract video ID from URL."
	}
	return videoID, ""
}

var errNoTranscript = errors.New("no transcript available")

func (t *Tool) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	page, err := t.get(ctx, t.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", err
	}

	playerResponse, ok := extractPlayerResponse(string(page))
	if !ok {
		return "", errNoTranscript
	}
	tracks := gjson.Get(playerResponse, captionTracksPath).Array()
	if len(tracks) == 0 {
		return "", errNoTranscript
	}

	track := pickTrack(tracks)
	captionURL := track.Get("baseUrl").String()
	if captionURL == "" {
		return "", errNoTranscript
	}

	captions, err := t.get(ctx, captionURL)
	if err != nil {
		return "", err
	}
	return parseCaptionXML(captions)
}

// pickTrack prefers German, then English, then the first track.
func pickTrack(tracks []gjson.Result) gjson.Result {
	for _, lang := range []string{"de", "en"} {
		for _, track := range tracks {
			code := track.Get("languageCode").String()
			if code == lang || strings.HasPrefix(code, lang+"-") {
				return track
			}
		}
	}
	return tracks[0]
}

// extractPlayerResponse finds the ytInitialPlayerResponse JSON blob
// in the watch page by scanning balanced braces, skipping string
// literals and escapes.
func extractPlayerResponse(page string) (string, bool) {
	start := strings.Index(page, playerResponseMarker)
	if start < 0 {
		return "", false
	}
	blob := page[start+len(playerResponseMarker):]
	if len(blob) == 0 || blob[0] != '{' {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(blob); i++ {
		c := blob[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return blob[:i+1], true
			}
		}
	}
	return "", false
}

type captionDocument struct {
	XMLName xml.Name      `xml:"transcript"`
	Texts   []captionText `xml:"text"`
}

type captionText struct {
	Start string `xml:"start,attr"`
	Text  string `xml:",chardata"`
}

func parseCaptionXML(data []byte) (string, error) {
	var doc captionDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", errors.Wrap(err, "failed to parse caption track")
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, text := range doc.Texts {
		if s := strings.TrimSpace(text.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

func (t *Tool) get(ctx context.Context, pageURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Call implements tools.ITool.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
