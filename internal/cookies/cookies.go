package cookies

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nostrcast/internal/fileutil"
	"nostrcast/internal/services"
)

// Cookie is one row of the browser's cookie store.
type Cookie struct {
	Host     string
	Path     string
	Secure   bool
	Expiry   int64
	Name     string
	Value    string
	HTTPOnly bool
}

// SourceFilePrefix marks a cookie_source value pointing at an existing
// Netscape-format cookie file.
const SourceFilePrefix = "file:"

// Resolve turns the configured cookie source into a cookie file path the
// downloaders can consume. An empty source means no cookies.
func Resolve(ctx context.Context, source, destDir string) (string, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return "", nil
	case source == "firefox":
		path := filepath.Join(destDir, "cookies.txt")
		if _, err := Export(ctx, path); err != nil {
			return "", err
		}
		return path, nil
	case strings.HasPrefix(source, SourceFilePrefix):
		path := strings.TrimPrefix(source, SourceFilePrefix)
		if !fileutil.NonEmpty(path) {
			return "", services.Wrap(services.ErrConfiguration, "cookies", "resolve",
				fmt.Sprintf("cookie file %s is missing or empty", path), nil)
		}
		return path, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "cookies", "resolve",
			fmt.Sprintf("unknown cookie source %q", source), nil)
	}
}

// Export reads the default Firefox profile's cookie database and writes a
// Netscape-format cookie file to outputPath, returning the cookie count.
func Export(ctx context.Context, outputPath string) (int, error) {
	profile, err := FindProfile()
	if err != nil {
		return 0, err
	}
	return ExportFromDB(ctx, filepath.Join(profile, "cookies.sqlite"), outputPath)
}

// FindProfile locates the default Firefox profile directory, preferring
// default-release profiles over plain default ones.
func FindProfile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	roots := []string{
		filepath.Join(home, ".mozilla", "firefox"),
		filepath.Join(home, "snap", "firefox", "common", ".mozilla", "firefox"),
	}
	for _, root := range roots {
		if profile := pickProfile(root); profile != "" {
			return profile, nil
		}
	}
	return "", errors.New("no Firefox profile found")
}

func pickProfile(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)

	for _, suffix := range []string{".default-release", ".default"} {
		for _, name := range dirs {
			if strings.Contains(name, suffix) {
				return filepath.Join(root, name)
			}
		}
	}
	if len(dirs) > 0 {
		return filepath.Join(root, dirs[0])
	}
	return ""
}

// ExportFromDB extracts cookies from a Firefox cookies.sqlite database and
// writes them to outputPath in Netscape format. The database is copied
// first since Firefox keeps it locked while running.
func ExportFromDB(ctx context.Context, dbPath, outputPath string) (int, error) {
	if !fileutil.NonEmpty(dbPath) {
		return 0, fmt.Errorf("cookie database %s not found", dbPath)
	}

	tempDB, err := os.CreateTemp("", "cookies-*.sqlite")
	if err != nil {
		return 0, err
	}
	tempDB.Close()
	defer os.Remove(tempDB.Name())
	if err := fileutil.CopyFile(dbPath, tempDB.Name()); err != nil {
		return 0, fmt.Errorf("copy cookie database: %w", err)
	}

	cookies, err := readCookies(ctx, tempDB.Name())
	if err != nil {
		return 0, err
	}
	if err := WriteNetscapeFile(outputPath, cookies); err != nil {
		return 0, err
	}
	return len(cookies), nil
}

func readCookies(ctx context.Context, dbPath string) ([]Cookie, error) {
	db, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open cookie database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT host, path, isSecure, expiry, name, value, isHttpOnly
		FROM moz_cookies
		ORDER BY host, path, name`)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []Cookie
	for rows.Next() {
		var c Cookie
		var secure, httpOnly int
		if err := rows.Scan(&c.Host, &c.Path, &secure, &c.Expiry, &c.Name, &c.Value, &httpOnly); err != nil {
			return nil, fmt.Errorf("scan cookie row: %w", err)
		}
		c.Secure = secure != 0
		c.HTTPOnly = httpOnly != 0
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// WriteNetscapeFile writes cookies to path in the Netscape HTTP Cookie
// File format the downloaders expect.
func WriteNetscapeFile(path string, cookies []Cookie) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	fmt.Fprintln(writer, "# Netscape HTTP Cookie File")
	fmt.Fprintln(writer, "# This is a generated file! Do not edit.")
	fmt.Fprintf(writer, "# Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	for _, cookie := range cookies {
		fmt.Fprintln(writer, FormatCookieLine(cookie))
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// FormatCookieLine renders one cookie as a Netscape cookie file line:
// domain, subdomain flag, path, secure flag, expiry, name, value.
func FormatCookieLine(cookie Cookie) string {
	domainFlag := "FALSE"
	if strings.HasPrefix(cookie.Host, ".") {
		domainFlag = "TRUE"
	}
	secureFlag := "FALSE"
	if cookie.Secure {
		secureFlag = "TRUE"
	}
	expiry := cookie.Expiry
	if expiry < 0 {
		expiry = 0
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s\t%s",
		cookie.Host, domainFlag, cookie.Path, secureFlag, expiry, cookie.Name, cookie.Value)
}
