package resolver

import (
	"bufio"
	"fmt"
	"net/url"
	"os"

	"github.com/foundrydata/foundrydata-sub008/structhash"
)

// appendSnapshotLine records one NDJSON line per fetched document ("url",
// "cacheKey") in fetch order, then rewrites the file's single trailing
// {"fingerprint"} line as a hash over all entry lines.
func appendSnapshotLine(path, url, cacheKey string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf(`{"url":%q,"cacheKey":%q}`+"\n", url, cacheKey)
	if _, err := f.WriteString(line); err != nil {
		return err
	}
	return rewriteFingerprint(path)
}

// rewriteFingerprint recomputes the snapshot file's trailing fingerprint
// line from every entry line preceding it, dropping any stale fingerprint
// line first.
func rewriteFingerprint(path string) error {
	entries, err := readEntryLines(path)
	if err != nil {
		return err
	}
	fp := structhash.HashString(joinLines(entries))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := w.WriteString(e + "\n"); err != nil {
			return err
		}
	}
	if _, err := w.WriteString(fmt.Sprintf(`{"fingerprint":%q}`+"\n", fp)); err != nil {
		return err
	}
	return w.Flush()
}

func readEntryLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if isFingerprintLine(line) {
			continue
		}
		entries = append(entries, line)
	}
	return entries, sc.Err()
}

func isFingerprintLine(line string) bool {
	return len(line) > 15 && line[:15] == `{"fingerprint":`
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func parseHost(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}
