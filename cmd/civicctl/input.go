package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Skotchmaster/civic_mirror/pkg/geo"
)

const maxImageBytes = 10 << 20

func parsePoint(lat, lng string) (geo.Point, error) {
	if lat == "" || lng == "" {
		return geo.Point{}, errors.New("both --lat and --lng are required")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("bad latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("bad longitude %q", lng)
	}
	p := geo.Point{Lat: la, Lng: lo}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("coordinates out of range: %s,%s", lat, lng)
	}
	return p, nil
}

// readImage returns the file base64-encoded together with its extension.
func readImage(path string) (string, string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", "", fmt.Errorf("%s: cannot tell the image type without an extension", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", "", err
	}
	if info.Size() > maxImageBytes {
		return "", "", fmt.Errorf("%s: image larger than %d bytes", path, maxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(data), ext, nil
}
