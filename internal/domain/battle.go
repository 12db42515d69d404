package domain

import "time"

const (
	// BattleQuestionCount is the number of questions in one battle.
	BattleQuestionCount = 5
	// BattleQuestionTime is the per-question answer window.
	BattleQuestionTime = 15 * time.Second
)

// Opponent is a simulated battle rival.
type Opponent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	Authority string `json:"authority"`
	WinRate   int    `json:"winRate"` // percent chance of answering correctly
	Status    string `json:"status"`
}

// BattleOutcome is the final standing of a battle.
type BattleOutcome string

const (
	OutcomePending BattleOutcome = ""
	OutcomeWon     BattleOutcome = "won"
	OutcomeTie     BattleOutcome = "tie"
	OutcomeLost    BattleOutcome = "lost"
)

// XP returns the experience reward for an outcome.
func (o BattleOutcome) XP() int {
	switch o {
	case OutcomeWon:
		return 100
	case OutcomeTie:
		return 30
	case OutcomeLost:
		return 10
	}
	return 0
}

// BattleRound records one question's result.
type BattleRound struct {
	QuestionID      string `json:"questionId"`
	PlayerOption    *int   `json:"playerOption"`
	PlayerCorrect   bool   `json:"playerCorrect"`
	OpponentCorrect bool   `json:"opponentCorrect"`
	TimedOut        bool   `json:"timedOut"`
}

// BattleSnapshot is the transport view of a battle.
type BattleSnapshot struct {
	ID            string        `json:"id"`
	Opponent      Opponent      `json:"opponent"`
	Index         int           `json:"index"`
	Total         int           `json:"total"`
	Question      *QuestionView `json:"question,omitempty"`
	PlayerScore   int           `json:"playerScore"`
	OpponentScore int           `json:"opponentScore"`
	Rounds        []BattleRound `json:"rounds"`
	Deadline      *time.Time    `json:"deadline,omitempty"`
	Stake         int           `json:"stake"`
	Outcome       BattleOutcome `json:"outcome,omitempty"`
	XP            int           `json:"xp,omitempty"`
	Payout        int           `json:"payout,omitempty"`
}

var opponents = []Opponent{
	{ID: "o1", Name: "Sara Al-Rashid", Level: 7, Authority: "DHA", WinRate: 78, Status: "online"},
	{ID: "o2", Name: "Omar Hassan", Level: 6, Authority: "MOH", WinRate: 65, Status: "online"},
	{ID: "o3", Name: "Fatima Khan", Level: 5, Authority: "HAAD", WinRate: 72, Status: "busy"},
	{ID: "o4", Name: "Ahmed Mahmoud", Level: 5, Authority: "DHA", WinRate: 60, Status: "online"},
	{ID: "o5", Name: "Layla Noor", Level: 4, Authority: "MOH", WinRate: 55, Status: "offline"},
	{ID: "o6", Name: "Khalid Ibrahim", Level: 4, Authority: "HAAD", WinRate: 68, Status: "online"},
}

// Opponents lists the simulated rivals.
func Opponents() []Opponent {
	return append([]Opponent(nil), opponents...)
}

// OpponentByID looks up a rival.
func OpponentByID(id string) (Opponent, error) {
	for _, o := range opponents {
		if o.ID == id {
			return o, nil
		}
	}
	return Opponent{}, ErrOpponentNotFound
}

// BattleQuestions is the built-in set used when the bank cannot fill a battle.
func BattleQuestions() []QuestionRecord {
	return []QuestionRecord{
		{
			ID: "b1", Day: 1, Topic: "Toxicology",
			Prompt:             "Which drug is the antidote for heparin overdose?",
			Options:            []string{"Vitamin K", "Protamine sulfate", "N-Acetylcysteine", "Naloxone"},
			CorrectOptionIndex: 1,
			Explanation:        "Protamine sulfate binds to heparin and neutralizes its anticoagulant effect.",
		},
		{
			ID: "b2", Day: 1, Topic: "Lab Monitoring",
			Prompt:             "What is the therapeutic INR range for patients on Warfarin with atrial fibrillation?",
			Options:            []string{"1.0-1.5", "1.5-2.0", "2.0-3.0", "3.0-4.5"},
			CorrectOptionIndex: 2,
			Explanation:        "For most indications including AF, the target INR is 2.0-3.0.",
		},
		{
			ID: "b3", Day: 1, Topic: "Drug Interactions",
			Prompt:             "Ciprofloxacin absorption is reduced by which supplement?",
			Options:            []string{"Vitamin C", "Iron supplements", "Vitamin D", "Folic acid"},
			CorrectOptionIndex: 1,
			Explanation:        "Divalent and trivalent cations chelate with fluoroquinolones and reduce their absorption.",
		},
		{
			ID: "b4", Day: 1, Topic: "Safety",
			Prompt:             "What is the pregnancy category of Isotretinoin?",
			Options:            []string{"Category A", "Category B", "Category C", "Category X"},
			CorrectOptionIndex: 3,
			Explanation:        "Isotretinoin is Category X and absolutely contraindicated in pregnancy.",
		},
		{
			ID: "b5", Day: 1, Topic: "Adverse Effects",
			Prompt:             "Which class of antibiotics can cause tendon rupture?",
			Options:            []string{"Penicillins", "Macrolides", "Fluoroquinolones", "Cephalosporins"},
			CorrectOptionIndex: 2,
			Explanation:        "Fluoroquinolones carry a boxed warning for tendon rupture, especially in elderly patients.",
		},
	}
}
