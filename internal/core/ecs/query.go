package ecs

// Rows1 is one group's slice of a single-component query. A and IDs alias
// live storage and are parallel: A[i] belongs to entity IDs[i].
type Rows1[A any] struct {
	Group GroupID
	IDs   []EntityID
	A     []A
	Count int
}

// Rows2 is one group's slice of a two-component query.
type Rows2[A, B any] struct {
	Group GroupID
	IDs   []EntityID
	A     []A
	B     []B
	Count int
}

// Rows3 is one group's slice of a three-component query.
type Rows3[A, B, C any] struct {
	Group GroupID
	IDs   []EntityID
	A     []A
	B     []B
	C     []C
	Count int
}

// Query1 returns one entry per requested group, in request order, including
// empty groups. The slices are valid until the next flush.
func Query1[A any](db *EntityDB, groups ...GroupID) ([]Rows1[A], error) {
	out := make([]Rows1[A], 0, len(groups))
	for _, g := range groups {
		ca, err := columnOf[A](db, g)
		if err != nil {
			return nil, err
		}
		gs := db.groups[g]
		out = append(out, Rows1[A]{Group: g, IDs: gs.ids, A: ca.data, Count: gs.count()})
	}
	return out, nil
}

// Query2 is Query1 for two components declared in every requested group.
func Query2[A, B any](db *EntityDB, groups ...GroupID) ([]Rows2[A, B], error) {
	out := make([]Rows2[A, B], 0, len(groups))
	for _, g := range groups {
		ca, err := columnOf[A](db, g)
		if err != nil {
			return nil, err
		}
		cb, err := columnOf[B](db, g)
		if err != nil {
			return nil, err
		}
		gs := db.groups[g]
		out = append(out, Rows2[A, B]{Group: g, IDs: gs.ids, A: ca.data, B: cb.data, Count: gs.count()})
	}
	return out, nil
}

// Query3 is Query1 for three components declared in every requested group.
func Query3[A, B, C any](db *EntityDB, groups ...GroupID) ([]Rows3[A, B, C], error) {
	out := make([]Rows3[A, B, C], 0, len(groups))
	for _, g := range groups {
		ca, err := columnOf[A](db, g)
		if err != nil {
			return nil, err
		}
		cb, err := columnOf[B](db, g)
		if err != nil {
			return nil, err
		}
		cc, err := columnOf[C](db, g)
		if err != nil {
			return nil, err
		}
		gs := db.groups[g]
		out = append(out, Rows3[A, B, C]{Group: g, IDs: gs.ids, A: ca.data, B: cb.data, C: cc.data, Count: gs.count()})
	}
	return out, nil
}

// Each1 calls fn for every entity of the given groups with a pointer into
// the A column.
func Each1[A any](db *EntityDB, groups []GroupID, fn func(EGID, *A)) error {
	rows, err := Query1[A](db, groups...)
	if err != nil {
		return err
	}
	for _, r := range rows {
		for i := 0; i < r.Count; i++ {
			fn(NewEGID(r.IDs[i], r.Group), &r.A[i])
		}
	}
	return nil
}

// Each2 iterates entities having both A and B.
func Each2[A, B any](db *EntityDB, groups []GroupID, fn func(EGID, *A, *B)) error {
	rows, err := Query2[A, B](db, groups...)
	if err != nil {
		return err
	}
	for _, r := range rows {
		for i := 0; i < r.Count; i++ {
			fn(NewEGID(r.IDs[i], r.Group), &r.A[i], &r.B[i])
		}
	}
	return nil
}

// Each3 iterates entities having components A, B, and C.
func Each3[A, B, C any](db *EntityDB, groups []GroupID, fn func(EGID, *A, *B, *C)) error {
	rows, err := Query3[A, B, C](db, groups...)
	if err != nil {
		return err
	}
	for _, r := range rows {
		for i := 0; i < r.Count; i++ {
			fn(NewEGID(r.IDs[i], r.Group), &r.A[i], &r.B[i], &r.C[i])
		}
	}
	return nil
}
