package record

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSet(t *testing.T) {
	var buf bytes.Buffer
	n, err := Encode(&buf, Set("foo", "bar"))
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)

	rec, consumed, err := Decode(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, n, consumed)
	require.Equal(t, KindSet, rec.Kind)
	require.Equal(t, "foo", rec.Key)
	require.Equal(t, "bar", rec.Value)
}

func TestEncodeDecodeRemove(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(&buf, Remove("foo"))
	require.NoError(t, err)

	rec, _, err := Decode(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, KindRemove, rec.Kind)
	require.Equal(t, "foo", rec.Key)
	require.Empty(t, rec.Value)
}

func TestDecodeMultipleRecords(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(&buf, Set("a", "1"))
	require.NoError(t, err)
	_, err = Encode(&buf, Set("b", "2"))
	require.NoError(t, err)

	r := bufio.NewReader(&buf)

	first, _, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, "a", first.Key)

	second, _, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, "b", second.Key)

	_, _, err = Decode(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestDecodeTruncatedRecord(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte(`{"kind":"set","key":"a"`)))
	_, _, err := Decode(r)
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestDecodeMalformedJSON(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("not json\n")))
	_, _, err := Decode(r)
	require.Error(t, err)
}
