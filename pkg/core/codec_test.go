package core

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(string(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}

	got, err := ParseMethod("")
	require.NoError(t, err)
	require.Equal(t, MethodZstd, got)

	_, err = ParseMethod("bzip2")
	require.ErrorIs(t, err, ErrUnknownMethod)
}

// TestCompressorLevels tests level validation per codec
func TestCompressorLevels(t *testing.T) {
	testCases := []struct {
		method  Method
		level   int
		wantErr bool
	}{
		{method: MethodZstd, level: 0},
		{method: MethodZstd, level: 3},
		{method: MethodZstd, level: 22},
		{method: MethodZstd, level: 23, wantErr: true},
		{method: MethodZstd, level: -1, wantErr: true},
		{method: MethodDeflate, level: 0},
		{method: MethodDeflate, level: 9},
		{method: MethodDeflate, level: 10, wantErr: true},
		{method: MethodLZ4, level: 0},
		{method: MethodLZ4, level: 9},
		{method: MethodLZ4, level: 10, wantErr: true},
		{method: MethodStore, level: 0},
	}

	for _, tc := range testCases {
		_, err := tc.method.compressor(tc.level)
		if tc.wantErr {
			require.ErrorIs(t, err, ErrInvalidLevel, "%s level %d", tc.method, tc.level)
		} else {
			require.NoError(t, err, "%s level %d", tc.method, tc.level)
		}
	}
}

// TestCodecHeaders checks the method id stamped on entries and that every
// codec decodes through the reader registry
func TestCodecHeaders(t *testing.T) {
	wantIDs := map[Method]uint16{
		MethodZstd:    zstd.ZipMethodWinZip,
		MethodDeflate: zip.Deflate,
		MethodLZ4:     zipMethodLZ4,
		MethodStore:   zip.Store,
	}
	payload := bytes.Repeat([]byte("cargo registry cache "), 512)

	for method, wantID := range wantIDs {
		t.Run(string(method), func(t *testing.T) {
			var archive bytes.Buffer
			zw := zip.NewWriter(&archive)
			id, err := registerCompressor(zw, method, 0)
			require.NoError(t, err)
			require.Equal(t, wantID, id)

			w, err := zw.CreateHeader(&zip.FileHeader{Name: "registry/cache/x", Method: id})
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, zw.Close())

			zr, err := zip.NewReader(bytes.NewReader(archive.Bytes()), int64(archive.Len()))
			require.NoError(t, err)
			registerDecompressors(zr)
			require.Len(t, zr.File, 1)
			require.Equal(t, wantID, zr.File[0].Method)

			rc, err := zr.File[0].Open()
			require.NoError(t, err)
			defer rc.Close()
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.Equal(t, payload, got)
		})
	}
}
