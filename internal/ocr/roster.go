package ocr

import "github.com/SAP-F-2025/exam-reader-service/internal/models"

// DemoStudent is one synthetic sheet in the demo roster. Answers holds one option letter per question.
type DemoStudent struct {
	ID      string
	Name    string
	Answers string
}

// AnswerList splits Answers into per-question option labels
func (s DemoStudent) AnswerList() []string {
	list := make([]string, 0, len(s.Answers))
	for _, r := range s.Answers {
		list = append(list, string(r))
	}
	return list
}

const demoAnswers = "ABCDABCDABCDABCDABCDABCDABCDAB"

// DemoAnswerKey is the key the demo roster was written against
func DemoAnswerKey() models.AnswerKey {
	key := models.AnswerKey{ExamID: "demo-exam", ExamTitle: "Demo Exam"}
	for i, r := range demoAnswers {
		key.Questions = append(key.Questions, models.Question{
			Number:        i + 1,
			CorrectAnswer: string(r),
			Type:          models.MultipleChoice,
		})
	}
	return key
}

var demoRoster = []DemoStudent{
	{ID: "2024001", Name: "Ahmet Yilmaz", Answers: "ABCDABCDABCDABCDABCDABCDABCDAB"},
	{ID: "2024002", Name: "Elif Kaya", Answers: "ABCDABCAABCDACCDABCDABDDABCDAB"},
	{ID: "2024003", Name: "Mehmet Demir", Answers: "BBCDAACDABCBABADABCDBBCDABCDAC"},
	{ID: "2024004", Name: "Zeynep Celik", Answers: "ABCDBBCDAACDABCDADCDABCDAACDBB"},
	{ID: "2024005", Name: "Can Ozturk", Answers: "ACCDABBDABCDCBCDABCAABCDABDDAB"},
	{ID: "2024006", Name: "Ayse Arslan", Answers: "ABCDABCDBBCDABCDABADABCDABCDAB"},
	{ID: "2024007", Name: "Burak Sahin", Answers: "CBCDABCAABDDABCCABCDACCDABCDAB"},
	{ID: "2024008", Name: "Selin Yildiz", Answers: "ABDDABCDACCDABCDBBCDABCAABCDAD"},
	{ID: "2024009", Name: "Emre Tas", Answers: "ABCAABCDABCDABCDABCDABCDABCDAB"},
	{ID: "2024010", Name: "Deniz Akin", Answers: "AACDACCDABADABCDABCDABCDBBCDAA"},
	{ID: "2024011", Name: "Fatma Polat", Answers: "DBCDABCDABCDADCDABCDABBDABCCAB"},
	{ID: "2024012", Name: "Cem Erdogan", Answers: "ABCDABCDABCDABCDABCDABCDABCDAB"},
	{ID: "2024013", Name: "Merve Korkmaz", Answers: "ABBDABCDCBCDABCDAACDABCDABADAB"},
	{ID: "2024014", Name: "Onur Cetin", Answers: "BBCDAACDABCCABBDABCDDBCDABCDAA"},
	{ID: "2024015", Name: "Gamze Kurt", Answers: "ABCDABCDABCDABCDABCDABCDABCDAB"},
	{ID: "2024016", Name: "Hakan Aydin", Answers: "ABCCABDDABCDABCDACCDABCDABCAAB"},
	{ID: "2024017", Name: "Irem Koc", Answers: "ADCDABCDABCDBBCDABCDAACDABCDCB"},
	{ID: "2024018", Name: "Kaan Dogan", Answers: "ABCDCBCDADCDABCDABADABCDABCDAB"},
	{ID: "2024019", Name: "Tugba Kilic", Answers: "ABCDABCDABDDABCDABCAABCDACCDAB"},
	{ID: "2024020", Name: "Murat Sen", Answers: "CBCDABADABCDABCBABCDABCDABCDBB"},
	{ID: "2024021", Name: "Pinar Ozcan", Answers: "ABCDABCDABCDABCDABCDABCDABCDAB"},
	{ID: "2024022", Name: "Serkan Yalcin", Answers: "ABADABCDBBCDABCDABCDADCDABCDAC"},
	{ID: "2024023", Name: "Nur Aksoy", Answers: "ABCDADCDABCDABCDABCDCBCDABCDAB"},
	{ID: "2024024", Name: "Volkan Tekin", Answers: "DBCDABCDAACDABCDABBDABCDABCDAB"},
	{ID: "2024025", Name: "Buse Gunes", Answers: "ABCDABCDABCDABCDABCDABCDABCDAB"},
}
