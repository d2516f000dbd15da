package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/ocr-runner/internal/model"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFormatResult(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 7, 2, 0, time.Local)
	got := FormatResult(model.RecognitionResult{Filename: "a.png", Text: "你好", CompletedAt: at})

	want := "文件名: a.png\n处理结果: 你好\n时间: 2024-03-05 09:07:02\n" + strings.Repeat("=", 80) + "\n"
	assert.Equal(t, want, got)
}

func TestFormatHeaderAndSummary(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 7, 2, 0, time.Local)
	assert.Equal(t, "处理开始时间: 2024-03-05 09:07:02\n"+strings.Repeat("=", 80)+"\n", FormatHeader(at))

	sum := model.RunSummary{Elapsed: 10 * time.Second, Images: 4}
	assert.Equal(t, "\n总处理时间: 10.00秒\n处理的图片数量: 4\n平均每张图片处理时间: 2.50秒\n", FormatSummary(sum))
}

func TestSink_AppendsAndSkipsFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	s := NewSink(path)
	now := time.Now()
	require.NoError(t, s.AppendHeader(now))
	require.NoError(t, s.AppendResult(model.RecognitionResult{Filename: "ok.png", Text: "text", CompletedAt: now}))
	require.NoError(t, s.AppendResult(model.RecognitionResult{Filename: "bad.png", Err: errors.New("boom"), CompletedAt: now}))
	require.NoError(t, s.AppendSummary(model.RunSummary{Elapsed: time.Second, Images: 2}))
	require.NoError(t, s.Close())

	content := readFile(t, path)
	assert.True(t, strings.HasPrefix(content, "previous run\n"))
	assert.Equal(t, 1, strings.Count(content, "文件名: "))
	assert.Contains(t, content, "文件名: ok.png")
	assert.NotContains(t, content, "bad.png")
	assert.Contains(t, content, "处理的图片数量: 2")
}

func TestSink_ConcurrentAppendsNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	s := NewSink(path)
	defer s.Close()

	const writers = 64
	payload := func(i int) string {
		// multi-line and large enough that a torn write would be visible
		return fmt.Sprintf("BEGIN-%03d\n%s\nEND-%03d\n", i, strings.Repeat(fmt.Sprintf("%03d", i), 3000), i)
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(payload(i)))
		}(i)
	}
	wg.Wait()

	content := readFile(t, path)
	for i := 0; i < writers; i++ {
		assert.Equal(t, 1, strings.Count(content, payload(i)), "payload %d", i)
	}
	total := 0
	for i := 0; i < writers; i++ {
		total += len(payload(i))
	}
	assert.Len(t, content, total)
}

func TestSink_WriteErrorIsTyped(t *testing.T) {
	dir := t.TempDir()
	s := NewSink(dir) // a directory cannot be opened for append
	defer s.Close()

	err := s.AppendHeader(time.Now())
	var se *model.SinkWriteError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, dir, se.Path)
}

func TestSink_CloseIsIdempotent(t *testing.T) {
	s := NewSink(filepath.Join(t.TempDir(), "r.txt"))
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestSink_Exporters(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "r.jsonl")
	csvPath := filepath.Join(dir, "r.csv")

	jw, err := NewJSONWriter(jsonPath)
	require.NoError(t, err)
	cw, err := NewCSVWriter(csvPath)
	require.NoError(t, err)

	s := NewSink(filepath.Join(dir, "results.txt"), jw, cw)
	now := time.Now()
	require.NoError(t, s.AppendResult(model.RecognitionResult{Filename: "ok.png", Text: "<b>&", CompletedAt: now, Duration: time.Second}))
	require.NoError(t, s.AppendResult(model.RecognitionResult{Filename: "bad.png", Err: errors.New("timeout"), CompletedAt: now}))
	require.NoError(t, s.Close())

	f, err := os.Open(jsonPath)
	require.NoError(t, err)
	defer f.Close()
	var recs []jsonRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec jsonRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		recs = append(recs, rec)
	}
	require.Len(t, recs, 2)
	assert.Equal(t, "ok.png", recs[0].Filename)
	assert.True(t, recs[0].OK)
	assert.Equal(t, "<b>&", recs[0].Text)
	assert.Equal(t, 1.0, recs[0].DurationS)
	assert.False(t, recs[1].OK)
	assert.Equal(t, "timeout", recs[1].Error)
	assert.Contains(t, readFile(t, jsonPath), "<b>&")

	csvContent := readFile(t, csvPath)
	lines := strings.Split(strings.TrimSpace(csvContent), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "ok.png,ok,"))
	assert.True(t, strings.HasPrefix(lines[2], "bad.png,failed,"))
	assert.True(t, strings.HasSuffix(lines[2], ",timeout"))
}

func TestCSVWriter_HeaderOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.csv")
	for i := 0; i < 2; i++ {
		cw, err := NewCSVWriter(path)
		require.NoError(t, err)
		require.NoError(t, cw.Write(model.RecognitionResult{Filename: fmt.Sprintf("%d.png", i), Text: "x"}))
		require.NoError(t, cw.Close())
	}
	content := readFile(t, path)
	assert.Equal(t, 1, strings.Count(content, "filename,status"))
	assert.Equal(t, 3, strings.Count(content, "\n"))
}

func TestProgress_Counts(t *testing.T) {
	var sb strings.Builder
	p := NewProgressTo(&sb, 3)
	p.Step("a.png", true)
	p.Step("b.png", false)
	p.Step("c.png", true)
	p.Finish()

	done, failed := p.Done()
	assert.Equal(t, 3, done)
	assert.Equal(t, 1, failed)
	assert.Empty(t, sb.String())
}

func TestParseLevel(t *testing.T) {
	_, err := ParseLevel("debug")
	assert.NoError(t, err)
	_, err = ParseLevel("WARN")
	assert.NoError(t, err)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
