package scoring

import (
	"strings"

	"teammatch/internal/domain"
	"teammatch/internal/port"
	"teammatch/internal/vector"
)

const (
	// LeadWeight is the team vector weight of the designated lead.
	LeadWeight = 1.5
	// MemberWeight is the team vector weight of every other member.
	MemberWeight = 1.0
	// NeutralBalance is the diversity of a team with no members or skills.
	NeutralBalance = 0.5
)

// LookupRef resolves a nullable embedding reference against an index.
func LookupRef(ix port.VectorIndex, ref *int) ([]float32, bool) {
	if ix == nil || ref == nil {
		return nil, false
	}
	return ix.Get(*ref)
}

// TeamVector is the weighted mean of the members' vectors, renormalized.
// Members without a resolvable vector are left out of both the sum and the
// weight. It returns false when no member has a vector.
func TeamVector(team domain.Team, employees port.VectorIndex) ([]float32, bool) {
	var sum []float64
	totalWeight := 0.0

	for _, member := range team.Members {
		vec, ok := LookupRef(employees, member.EmbeddingRef)
		if !ok {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		if len(vec) != len(sum) {
			continue
		}

		weight := MemberWeight
		if team.IsLead(member.ID) {
			weight = LeadWeight
		}
		for i, x := range vec {
			sum[i] += weight * float64(x)
		}
		totalWeight += weight
	}

	if totalWeight == 0 {
		return nil, false
	}

	mean := make([]float32, len(sum))
	for i, x := range sum {
		mean[i] = float32(x / totalWeight)
	}
	return vector.Normalize(mean), true
}

// TeamSkills is the case-insensitive union of member skills. The first
// spelling seen is kept.
func TeamSkills(members []domain.Employee) []string {
	seen := make(map[string]struct{})
	var skills []string
	for _, m := range members {
		for _, s := range m.Skills {
			key := strings.ToLower(s)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, s)
		}
	}
	return skills
}

// AverageExperience is the arithmetic mean of member experience, 0 for an
// empty team.
func AverageExperience(members []domain.Employee) float64 {
	if len(members) == 0 {
		return 0
	}
	total := 0.0
	for _, m := range members {
		total += m.Experience
	}
	return total / float64(len(members))
}

// SkillDiversity is distinct skills over total skill mentions, capped at 1.
// A team with no members or no skills gets NeutralBalance.
func SkillDiversity(members []domain.Employee) float64 {
	distinct := make(map[string]struct{})
	mentions := 0
	for _, m := range members {
		for _, s := range m.Skills {
			distinct[strings.ToLower(s)] = struct{}{}
			mentions++
		}
	}

	if mentions == 0 {
		return NeutralBalance
	}
	return min(float64(len(distinct))/float64(mentions), 1.0)
}
