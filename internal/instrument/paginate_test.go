package instrument

import (
	"errors"
	"testing"
)

func nums(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		limit     int
		offset    int
		wantItems []int
		wantMore  bool
	}{
		{"first page", 25, 10, 0, nums(25)[0:10], true},
		{"middle page", 25, 10, 10, nums(25)[10:20], true},
		{"last partial page", 25, 10, 20, nums(25)[20:25], false},
		{"exact fit", 20, 10, 10, nums(20)[10:20], false},
		{"offset past end", 10, 5, 50, []int{}, false},
		{"offset at end", 10, 5, 10, []int{}, false},
		{"limit covers all", 5, 100, 0, nums(5), false},
		{"empty input", 0, 10, 0, []int{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(nums(tt.total), tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("Paginate returned error: %v", err)
			}
			if len(page.Items) != len(tt.wantItems) {
				t.Fatalf("got %d items, want %d", len(page.Items), len(tt.wantItems))
			}
			for i, v := range page.Items {
				if v != tt.wantItems[i] {
					t.Errorf("items[%d] = %d, want %d", i, v, tt.wantItems[i])
				}
			}
			if page.Total != tt.total {
				t.Errorf("Total = %d, want %d", page.Total, tt.total)
			}
			if page.Limit != tt.limit || page.Offset != tt.offset {
				t.Errorf("echoed limit/offset = %d/%d, want %d/%d", page.Limit, page.Offset, tt.limit, tt.offset)
			}
			if page.HasMore != tt.wantMore {
				t.Errorf("HasMore = %v, want %v", page.HasMore, tt.wantMore)
			}
		})
	}
}

func TestPaginateZeroLimit(t *testing.T) {
	page, err := Paginate(nums(10), 0, 3)
	if err != nil {
		t.Fatalf("Paginate returned error: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("got %d items, want 0", len(page.Items))
	}
	if page.Items == nil {
		t.Error("Items is nil, want empty slice")
	}
	if !page.HasMore {
		t.Error("HasMore = false, want true: entries remain past offset 3")
	}

	// Zero limit past the end reports nothing left.
	page, err = Paginate(nums(10), 0, 10)
	if err != nil {
		t.Fatalf("Paginate returned error: %v", err)
	}
	if page.HasMore {
		t.Error("HasMore = true at offset == total, want false")
	}
}

func TestPaginateNegativeArgs(t *testing.T) {
	for _, tt := range []struct{ limit, offset int }{{-1, 0}, {0, -1}, {-5, -5}} {
		_, err := Paginate(nums(10), tt.limit, tt.offset)
		if !errors.Is(err, ErrInvalidPagination) {
			t.Errorf("Paginate(limit=%d, offset=%d) err = %v, want ErrInvalidPagination", tt.limit, tt.offset, err)
		}
	}
}

func TestPaginateConcatenation(t *testing.T) {
	items := nums(23)
	var got []int
	offset := 0
	for {
		page, err := Paginate(items, 7, offset)
		if err != nil {
			t.Fatalf("Paginate returned error: %v", err)
		}
		got = append(got, page.Items...)
		if !page.HasMore {
			break
		}
		offset += 7
	}
	if len(got) != len(items) {
		t.Fatalf("concatenated %d items, want %d", len(got), len(items))
	}
	for i, v := range got {
		if v != items[i] {
			t.Errorf("concatenated[%d] = %d, want %d", i, v, items[i])
		}
	}
}
