package domain

import "fmt"

const (
	// CurriculumDays is the length of the study plan.
	CurriculumDays = 45
	// DaysPerWorld groups roadmap days into worlds of a week each.
	DaysPerWorld = 7
	// StartingCredits is the balance of a fresh profile.
	StartingCredits = 100
)

// RoadmapDay is one curriculum day with the player's progress on it.
type RoadmapDay struct {
	Day       int      `json:"day"`
	WorldID   int      `json:"worldId"`
	Title     string   `json:"title"`
	SubTopics []string `json:"subTopics"`
	Unlocked  bool     `json:"unlocked"`
	Completed bool     `json:"completed"`
	Score     int      `json:"score"`
}

// Milestone is a mock exam over a range of curriculum days.
type Milestone struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	StartDay      int    `json:"startDay"`
	EndDay        int    `json:"endDay"`
	QuestionCount int    `json:"questionCount"`
}

// Progress is a player's roadmap state and wallet.
type Progress struct {
	UserID     string       `json:"userId"`
	Credits    int          `json:"credits"`
	Streak     int          `json:"streak"`
	LastActive string       `json:"lastActive,omitempty"` // YYYY-MM-DD
	Days       []RoadmapDay `json:"days"`
}

type scheduleEntry struct {
	days  []int
	topic string
	subs  []string
}

var schedule = []scheduleEntry{
	{[]int{1, 2}, "Adrenergic agonist", []string{"General Pharmacology"}},
	{[]int{3, 4}, "Adrenergic antagonist", []string{"Antidote & Pregnancy choices"}},
	{[]int{5, 6}, "Cholinergic agonist", []string{"Sources of drug information", "Hypolipidemic agents"}},
	{[]int{7}, "Cholinergic antagonist", []string{"Inventory control"}},
	{[]int{8}, "Asthma", []string{"NSAIDS", "Cough"}},
	{[]int{9}, "CVS introduction", []string{"Histamines & Antihistamines"}},
	{[]int{10}, "Diuretics, CHF Intro", []string{"Peptic ulcer"}},
	{[]int{11}, "Congestive heart failure", []string{"Institutional review board"}},
	{[]int{12}, "Angina", []string{"Hypolipidemic agents (discussion)", "Regulations"}},
	{[]int{13}, "Arrhythmia", []string{"Statistics 1"}},
	{[]int{14, 15}, "Blood drugs", []string{"Pharmacoepidemiology", "Hypertension", "Emetics and antiemetics"}},
	{[]int{16}, "Q&A Discussion", []string{"Suspension vs Emulsion"}},
	{[]int{17}, "Dose calculation", []string{"Percentage type calculations"}},
	{[]int{18}, "Molarity & Molar concentrations", []string{"Milli-equivalence", "Osmolar concentration"}},
	{[]int{19}, "Parts per million", []string{"Pharmacokinetics - 1"}},
	{[]int{20}, "Pharmacokinetic 2", []string{"Dilution mixing"}},
	{[]int{21}, "Bioavailability", []string{"Infusion/Drop rate", "Insulin dose calculation"}},
	{[]int{22}, "Q&A Discussion", []string{"Androgens"}},
	{[]int{23}, "Pituitary & Adrenal hormones", []string{"ADR Classification"}},
	{[]int{24}, "Thyroid hormones", []string{"Immunosuppressants"}},
	{[]int{25}, "Estrogens, Progestogens, OCP", []string{"Medication error"}},
	{[]int{26}, "Study designs", []string{"Clinical trials", "Constipation & Diarrhea"}},
	{[]int{27, 28}, "Insulin & OHA", []string{"Insulin Dosing", "Pharmacogenomics"}},
	{[]int{29}, "Sedatives & Antidepressants", []string{"Efficacy, Potency", "Communication Skill"}},
	{[]int{30}, "GA & LA", []string{"Child Pugh", "CHA2DS2VASc Score"}},
	{[]int{31}, "Opioids", []string{"Herbal drugs", "RF value-chromatography"}},
	{[]int{32}, "Antipsychotics & Antimanic", []string{"Pharmacoeconomics", "Direct/Indirect cost"}},
	{[]int{33}, "Neurodegenerative disorders", []string{"Alcohol"}},
	{[]int{34}, "Epilepsy", []string{"Vitamins"}},
	{[]int{35}, "RA, Osteoporosis, Gout", []string{"Corrected phenytoin level"}},
	{[]int{36, 37}, "Microbiology Intro", []string{"Cell wall synthesis inhibitors", "Immunology"}},
	{[]int{38}, "Protein synthesis inhibitor", []string{"Transcription/Translation", "DNA vs RNA"}},
	{[]int{39}, "Fluoroquinolones & Anti TB", []string{"Antiprotozoal agents"}},
	{[]int{40}, "Antileprotic & Antifungal", []string{"Sulfonamides", "Bioequivalence"}},
	{[]int{41}, "Antiviral & Anticancer", []string{"Hydroxyl group of quinine"}},
	{[]int{42}, "Vaccines", []string{"SAR of drugs"}},
	{[]int{43}, "Ethics in Clinical Trials", []string{"Off-label drug use"}},
	{[]int{44}, "Q&A Discussion", []string{"Amino acids"}},
	{[]int{45}, "Final Mastery Boss", []string{"Full Comprehensive Review"}},
}

// Curriculum returns the locked 45-day roadmap.
func Curriculum() []RoadmapDay {
	days := make([]RoadmapDay, CurriculumDays)
	for i := range days {
		day := i + 1
		days[i] = RoadmapDay{
			Day:     day,
			WorldID: i/DaysPerWorld + 1,
			Title:   fmt.Sprintf("Day %d Focus", day),
		}
		for _, entry := range schedule {
			if containsInt(entry.days, day) {
				days[i].Title = entry.topic
				days[i].SubTopics = append([]string(nil), entry.subs...)
				break
			}
		}
		if days[i].SubTopics == nil {
			days[i].SubTopics = []string{}
		}
	}
	return days
}

// NewProgress returns the initial profile: starting credits and day 1 unlocked.
func NewProgress(userID string) Progress {
	days := Curriculum()
	days[0].Unlocked = true
	return Progress{
		UserID:  userID,
		Credits: StartingCredits,
		Days:    days,
	}
}

var milestones = []Milestone{
	{ID: "checkpoint-1", Title: "Checkpoint 1: Days 1-15", StartDay: 1, EndDay: 15, QuestionCount: 50},
	{ID: "checkpoint-2", Title: "Checkpoint 2: Days 16-30", StartDay: 16, EndDay: 30, QuestionCount: 50},
	{ID: "checkpoint-3", Title: "Checkpoint 3: Days 31-45", StartDay: 31, EndDay: 45, QuestionCount: 50},
	{ID: "final", Title: "Final Mock Exam", StartDay: 1, EndDay: CurriculumDays, QuestionCount: 120},
}

// Milestones lists the mock exams in curriculum order.
func Milestones() []Milestone {
	return append([]Milestone(nil), milestones...)
}

// MilestoneByID looks up a mock exam definition.
func MilestoneByID(id string) (Milestone, error) {
	for _, m := range milestones {
		if m.ID == id {
			return m, nil
		}
	}
	return Milestone{}, ErrMilestoneNotFound
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
