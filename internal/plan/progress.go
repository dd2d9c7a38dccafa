package plan

// Percent returns how much of p is done, floored to an integer in [0,100].
// A nil plan or one without cards is 0%.
func Percent(p *Plan) int {
	if p == nil || len(p.Cards) == 0 {
		return 0
	}
	return min(100*len(p.Completed)/len(p.Cards), 100)
}
