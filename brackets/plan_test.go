package brackets

import (
	"testing"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
)

func TestPlanEliminationRoundsAndLabels(t *testing.T) {
	specs, err := PlanRounds(PlanParams{
		Format:       models.FormatElimination,
		Participants: 8,
		FinalBestOf:  5,
	})
	if err != nil {
		t.Fatalf("PlanRounds: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 rounds for 8 participants, got %d", len(specs))
	}
	wantLabels := []string{"Quarterfinals", "Semifinals", "Final"}
	for i, want := range wantLabels {
		if specs[i].Label != want {
			t.Errorf("round %d label = %q, want %q", i+1, specs[i].Label, want)
		}
		if specs[i].BestOf != 5 {
			t.Errorf("round %d best_of = %d, want 5", i+1, specs[i].BestOf)
		}
	}
}

func TestPlanEliminationDeepBracket(t *testing.T) {
	specs, err := PlanRounds(PlanParams{
		Format:       models.FormatElimination,
		Participants: 33,
		FinalBestOf:  3,
	})
	if err != nil {
		t.Fatalf("PlanRounds: %v", err)
	}
	if len(specs) != 6 {
		t.Fatalf("expected 6 rounds for 33 participants, got %d", len(specs))
	}
	if specs[0].Label != "Round 1" {
		t.Errorf("first round label = %q, want %q", specs[0].Label, "Round 1")
	}
	if specs[2].Label != "Round of 16" {
		t.Errorf("third round label = %q, want %q", specs[2].Label, "Round of 16")
	}
	if specs[5].Label != "Final" {
		t.Errorf("last round label = %q, want %q", specs[5].Label, "Final")
	}
}

func TestPlanLeagueRoundCounts(t *testing.T) {
	tests := []struct {
		participants int
		iterations   int
		want         int
	}{
		{5, 1, 4},
		{5, 2, 8},
		{8, 1, 7},
	}
	for _, tt := range tests {
		specs, err := PlanRounds(PlanParams{
			Format:        models.FormatLeague,
			Participants:  tt.participants,
			GeneralRounds: tt.iterations,
			GeneralBestOf: 1,
		})
		if err != nil {
			t.Fatalf("PlanRounds(N=%d, it=%d): %v", tt.participants, tt.iterations, err)
		}
		if len(specs) != tt.want {
			t.Errorf("N=%d iterations=%d: got %d rounds, want %d",
				tt.participants, tt.iterations, len(specs), tt.want)
		}
	}
}

func TestPlanLeagueReturnLegLabels(t *testing.T) {
	specs, err := PlanRounds(PlanParams{
		Format:        models.FormatLeague,
		Participants:  3,
		GeneralRounds: 2,
		GeneralBestOf: 1,
	})
	if err != nil {
		t.Fatalf("PlanRounds: %v", err)
	}
	if specs[0].Label != "League Round 1 (Ida)" {
		t.Errorf("first leg label = %q", specs[0].Label)
	}
	if specs[2].Label != "League Round 3 (Vuelta)" {
		t.Errorf("return leg label = %q", specs[2].Label)
	}
}

func TestPlanSwissBounds(t *testing.T) {
	if _, err := PlanRounds(PlanParams{Format: models.FormatSwiss, Participants: 8, GeneralRounds: 11}); err == nil {
		t.Error("expected error for 11 swiss rounds")
	}
	if _, err := PlanRounds(PlanParams{Format: models.FormatSwiss, Participants: 8, GeneralRounds: 0}); err == nil {
		t.Error("expected error for 0 swiss rounds")
	}
	specs, err := PlanRounds(PlanParams{Format: models.FormatSwiss, Participants: 8, GeneralRounds: 4, GeneralBestOf: 3})
	if err != nil {
		t.Fatalf("PlanRounds: %v", err)
	}
	if len(specs) != 4 || specs[3].Label != "Swiss Round 4" {
		t.Errorf("got %d rounds, last label %q", len(specs), specs[len(specs)-1].Label)
	}
}

func TestPlanSwissElimination(t *testing.T) {
	specs, err := PlanRounds(PlanParams{
		Format:        models.FormatSwissElimination,
		Participants:  16,
		GeneralRounds: 4,
		FinalRounds:   2,
		GeneralBestOf: 3,
		FinalBestOf:   5,
	})
	if err != nil {
		t.Fatalf("PlanRounds: %v", err)
	}
	if len(specs) != 6 {
		t.Fatalf("expected 6 rounds, got %d", len(specs))
	}
	if specs[3].Phase != models.RoundPhaseGeneral {
		t.Errorf("round 4 phase = %q, want general", specs[3].Phase)
	}
	if specs[4].Label != "Semifinals (4→2)" {
		t.Errorf("round 5 label = %q", specs[4].Label)
	}
	if specs[5].Label != "Final (2→1)" {
		t.Errorf("round 6 label = %q", specs[5].Label)
	}
	if specs[5].Phase != models.RoundPhaseFinal || specs[5].BestOf != 5 {
		t.Errorf("final round phase/bestof = %q/%d", specs[5].Phase, specs[5].BestOf)
	}
}

func TestSelectForElimination(t *testing.T) {
	seats := []Seat{
		{PlayerID: 1, Points: 3, Wins: 3, Rating: 1500},
		{PlayerID: 2, Points: 3, Wins: 3, Rating: 1600},
		{PlayerID: 3, Points: 1, Wins: 1, Rating: 1700},
		{PlayerID: 4, Points: 2, Wins: 2, Rating: 1400},
		{PlayerID: 5, Points: 0, Wins: 0, Rating: 1800},
	}
	advancing, eliminated := SelectForElimination(seats, 4)
	if len(advancing) != 4 || len(eliminated) != 1 {
		t.Fatalf("advancing=%v eliminated=%v", advancing, eliminated)
	}
	if advancing[0] != 2 {
		t.Errorf("top seed = %d, want 2 (rating breaks the points tie)", advancing[0])
	}
	if eliminated[0] != 5 {
		t.Errorf("eliminated = %v, want [5]", eliminated)
	}
}
