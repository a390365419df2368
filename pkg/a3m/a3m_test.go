package a3m_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/afprep/brokenio"

	. "github.com/andrew-torda/afprep/pkg/a3m"
)

// search is shaped like colabfold output: query, two UniRef hits, the
// query again, then environmental hits.
const search = ">101\nMKVL\n" +
	">A0A001\t90\t0.9\nMKV-\n" +
	">UniRef100_B0B002\t80\nMKaVI\n" +
	">101\nMKVL\n" +
	">ENV_1\t70\nMRVL\n" +
	">ENV_2\t60\nM\nRVL\n"

const m8 = "101\tA0A001\t9606\t1.0\n" +
	"101\tUniRef100_B0B002\t10090\n" +
	"101\tENV_1\t562\n"

func TestRead(t *testing.T) {
	a, err := Read(strings.NewReader(search))
	require.NoError(t, err)
	require.Len(t, a.Entries, 6)
	require.Equal(t, 3, a.UnirefIndex)
	require.Equal(t, "101", a.Query().Name)
	require.Equal(t, "MKaVI", a.Seq(2), "lower case kept")
	require.Equal(t, "MK.VL", string(a.Entries[0].Residues), "insert column padded")
	require.Equal(t, "MRVL", a.Seq(5), "lines joined")
	require.Equal(t, "A0A001", ID(a.Entries[1].Name))
	require.Equal(t, "A0A001\t90\t0.9", a.Entries[1].Name, "tabs kept in header")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))
	require.True(t, strings.HasPrefix(buf.String(), ">101\nMKVL\n>A0A001\t90\t0.9\nMKV-\n"), buf.String())
	b, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

// TestWriteUnchanged checks a search result comes back byte for byte.
func TestWriteUnchanged(t *testing.T) {
	const in = ">q\nMKaaVLA\n" +
		">UniRef100_X1\t88\t1e-5\nM-aaV-A\n" +
		">UniRef100_X2\nMKVLA\n" +
		">q\nMKaaVLA\n" +
		">ENV\t12\n--VLa\nA\n"
	const want = ">q\nMKaaVLA\n" +
		">UniRef100_X1\t88\t1e-5\nM-aaV-A\n" +
		">UniRef100_X2\nMKVLA\n" +
		">q\nMKaaVLA\n" +
		">ENV\t12\n--VLaA\n"
	a, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, a.UnirefIndex)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))
	require.Equal(t, want, buf.String())
}

func TestReadErrors(t *testing.T) {
	for _, s := range []string{"", "MKV\n>x\nMKV\n", "\n\n"} {
		_, err := Read(strings.NewReader(s))
		require.Error(t, err, "%q", s)
	}
	a, err := Read(strings.NewReader(">q\nAA\n\x00>h\nAB\n"))
	require.NoError(t, err)
	require.Len(t, a.Entries, 2)
	require.Equal(t, 0, a.UnirefIndex, "no repeated query")

	_, err = Read(brokenio.NewReader(strings.NewReader(search), 20))
	require.ErrorIs(t, err, brokenio.ErrBroken)
	_, err = Read(brokenio.Empty(strings.NewReader(search)))
	require.Error(t, err, "looks like an empty file")
}

func TestReadM8(t *testing.T) {
	m, err := ReadM8(strings.NewReader(m8))
	require.NoError(t, err)
	require.Equal(t, "9606", m["A0A001"])
	require.Equal(t, "10090", m["UniRef100_B0B002"])
	_, err = ReadM8(strings.NewReader("only\ttwo\n"))
	require.Error(t, err)
}

func TestAddTaxID(t *testing.T) {
	a, err := Read(strings.NewReader(search))
	require.NoError(t, err)
	m, err := ReadM8(strings.NewReader(m8))
	require.NoError(t, err)
	a.AddTaxID(m)
	require.Equal(t, "101", a.Entries[0].Name)
	require.Equal(t, "UniRef100_A0A001_9606/\t90\t0.9", a.Entries[1].Name)
	require.Equal(t, "UniRef100_B0B002_10090/\t80", a.Entries[2].Name, "prefix not doubled")
	require.Equal(t, "ENV_1\t70", a.Entries[4].Name, "after the uniref section")
}

func TestSplitUniref(t *testing.T) {
	a, err := Read(strings.NewReader(search))
	require.NoError(t, err)
	m, _ := ReadM8(strings.NewReader(m8))
	a.AddTaxID(m)
	uniref, other := a.SplitUniref("")

	hdrs := func(x *Alignment) (ret []string) {
		for _, s := range x.Entries {
			ret = append(ret, ID(s.Name))
		}
		return ret
	}
	require.Equal(t, []string{"query", "UniRef100_A0A001_9606/", "UniRef100_B0B002_10090/"}, hdrs(uniref))
	require.Equal(t, []string{"query", "ENV_1", "ENV_2"}, hdrs(other), "repeated query dropped")
	require.Equal(t, "MKVL", uniref.Seq(0))
	require.Equal(t, "MKaVI", uniref.Seq(2), "insert survives the split")
	require.Equal(t, "MRVL", other.Seq(1))

	u2, _ := a.SplitUniref("XXXX")
	require.Equal(t, "XXXX", u2.Seq(0))
}

func TestCountFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "x.a3m")
	require.NoError(t, os.WriteFile(fname, []byte(search), 0644))
	n, err := CountFile(fname)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	empty := filepath.Join(dir, "empty.a3m")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	n, err = CountFile(empty)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = CountFile(filepath.Join(dir, "gone.a3m"))
	require.Error(t, err)
}
