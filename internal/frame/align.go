package frame

// AlignResult is the output of Align together with the missing-value summaries
// taken before and after forward filling.
type AlignResult struct {
	Frame         *Frame
	MissingBefore []ColumnCount
	MissingAfter  []ColumnCount
}

// Align joins the groups on date, keeps only rows where anchor has a value and
// forward fills the remaining gaps. Each group is itself outer-joined first, so the
// column order is group order, then member order.
func Align(anchor string, groups ...[]*Frame) (AlignResult, error) {
	joinedGroups := make([]*Frame, 0, len(groups))

	for _, members := range groups {
		joined, err := Join(members...)
		if err != nil {
			return AlignResult{}, err
		}

		joinedGroups = append(joinedGroups, joined)
	}

	merged, err := Join(joinedGroups...)
	if err != nil {
		return AlignResult{}, err
	}

	trading, err := merged.DropMissing(anchor)
	if err != nil {
		return AlignResult{}, err
	}

	filled := trading.ForwardFill()

	return AlignResult{
		Frame:         filled,
		MissingBefore: trading.MissingCounts(),
		MissingAfter:  filled.MissingCounts(),
	}, nil
}
