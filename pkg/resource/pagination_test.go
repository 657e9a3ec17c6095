package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		pageSize string
		want     Page
		wantErr  bool
	}{
		{name: "defaults", want: Page{Number: 1, Size: 10}},
		{name: "explicit", page: "3", pageSize: "25", want: Page{Number: 3, Size: 25}},
		{name: "zero page clamps to one", page: "0", want: Page{Number: 1, Size: 10}},
		{name: "negative page clamps to one", page: "-4", want: Page{Number: 1, Size: 10}},
		{name: "oversized page size clamps to max", pageSize: "1000", want: Page{Number: 1, Size: 100}},
		{name: "zero page size clamps to one", pageSize: "0", want: Page{Number: 1, Size: 1}},
		{name: "huge page number is capped", page: "99999999999", want: Page{Number: (maxPageNumber - 1) / 10, Size: 10}},
		{name: "page past int range is capped", page: "99999999999999999999", want: Page{Number: (maxPageNumber - 1) / 10, Size: 10}},
		{name: "page size past int range clamps to max", pageSize: "99999999999999999999", want: Page{Number: 1, Size: 100}},
		{name: "negative page size past int range clamps to one", pageSize: "-99999999999999999999", want: Page{Number: 1, Size: 1}},
		{name: "mixed sign garbage", page: "9-9", wantErr: true},
		{name: "non-numeric page", page: "two", wantErr: true},
		{name: "non-numeric page size", pageSize: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePage(tt.page, tt.pageSize, DefaultPageSize, MaxPageSize)
			if tt.wantErr {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "Invalid pagination parameters", ve.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePage_BadDefaults(t *testing.T) {
	got, err := NormalizePage("", "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, got)

	got, err = NormalizePage("", "", 50, 20)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Size)
}

func TestPage_OffsetAndCursor(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	assert.Equal(t, 40, p.Offset())
	require.NotNil(t, p.Cursor())
	assert.Equal(t, "?page=4&page_size=20", *p.Cursor())
}

func TestPage_Next(t *testing.T) {
	p := Page{Number: 1, Size: 2}
	require.NotNil(t, p.Next(2))
	assert.Equal(t, "?page=2&page_size=2", *p.Next(2))
	assert.Nil(t, p.Next(1))
	assert.Nil(t, p.Next(0))
}

func TestPage_Meta(t *testing.T) {
	p := Page{Number: 2, Size: 1}

	full := p.Meta(NextPageFullPage, 1, false)
	require.NotNil(t, full.NextPage)
	assert.Equal(t, "?page=3&page_size=1", *full.NextPage)

	look := p.Meta(NextPageLookahead, 1, false)
	assert.Nil(t, look.NextPage)
	assert.Equal(t, 2, look.Page)
	assert.Equal(t, 1, look.PageSize)

	more := p.Meta(NextPageLookahead, 1, true)
	require.NotNil(t, more.NextPage)
}

func TestParseNextPagePolicy(t *testing.T) {
	got, err := ParseNextPagePolicy("")
	require.NoError(t, err)
	assert.Equal(t, NextPageLookahead, got)

	got, err = ParseNextPagePolicy("full_page")
	require.NoError(t, err)
	assert.Equal(t, NextPageFullPage, got)

	_, err = ParseNextPagePolicy("sometimes")
	assert.Error(t, err)
}
