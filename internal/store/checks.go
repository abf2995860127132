package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func checkColumns(t *entsql.SelectTable) []string {
	return []string{
		t.C("id"), t.C("user_id"), t.C("question_id"), t.C("initial_answer_id"),
		t.C("recall_answer_id"), t.C("step"), t.C("confidence"), t.C("keyword_match_count"),
		t.C("hint_provided"), t.C("result"), t.C("check_date"), t.C("created_at"),
	}
}

func scanCheck(sc scanner) (*Check, error) {
	var (
		c                        Check
		recall                   sql.NullInt64
		step, confidence, result string
		day                      string
		created                  int64
	)
	err := sc.Scan(&c.ID, &c.UserID, &c.QuestionID, &c.InitialAnswerID, &recall,
		&step, &confidence, &c.KeywordMatchCount, &c.HintProvided, &result, &day, &created)
	if err != nil {
		return nil, err
	}
	d, err := parseDay(day)
	if err != nil {
		return nil, err
	}
	c.RecallAnswerID = recall.Int64
	c.Step = CheckStep(step)
	c.Confidence = Confidence(confidence)
	c.Result = CheckResult(result)
	c.Date = d
	c.CreatedAt = fromMillis(created)
	return &c, nil
}

func (r *repo) AddCheck(ctx context.Context, c *Check) error {
	if c.KeywordMatchCount < 0 {
		return fmt.Errorf("insert check: negative keyword match count %d", c.KeywordMatchCount)
	}
	var recall any
	if c.RecallAnswerID != 0 {
		recall = c.RecallAnswerID
	}
	ts := now()
	id, err := r.insert(ctx, r.b.Insert(tableChecks).
		Columns("user_id", "question_id", "initial_answer_id", "recall_answer_id", "step",
			"confidence", "keyword_match_count", "hint_provided", "result", "check_date", "created_at").
		Values(c.UserID, c.QuestionID, c.InitialAnswerID, recall, string(c.Step),
			string(c.Confidence), c.KeywordMatchCount, c.HintProvided, string(c.Result),
			formatDay(c.Date), millis(ts)))
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	c.ID = id
	c.Date = Day(c.Date)
	c.CreatedAt = fromMillis(millis(ts))
	return nil
}

// ListChecks returns a user's checks, newest first.
func (r *repo) ListChecks(ctx context.Context, userID int64, limit int) ([]Check, error) {
	t := r.b.Table(tableChecks)
	sel := r.b.Select(checkColumns(t)...).From(t).
		Where(entsql.EQ(t.C("user_id"), userID)).
		OrderBy(entsql.Desc(t.C("id")))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var out []Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repo) AddHintImage(ctx context.Context, h *HintImage) error {
	ts := now()
	id, err := r.insert(ctx, r.b.Insert(tableHints).
		Columns("check_id", "image_url", "prompt", "created_at").
		Values(h.CheckID, h.URL, h.Prompt, millis(ts)))
	if err != nil {
		return fmt.Errorf("insert hint image: %w", err)
	}
	h.ID = id
	h.CreatedAt = fromMillis(millis(ts))
	return nil
}

func (r *repo) GetHintImages(ctx context.Context, checkID int64) ([]HintImage, error) {
	t := r.b.Table(tableHints)
	query, args := r.b.Select(t.C("id"), t.C("check_id"), t.C("image_url"), t.C("prompt"), t.C("created_at")).
		From(t).
		Where(entsql.EQ(t.C("check_id"), checkID)).
		OrderBy(t.C("id")).
		Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get hint images: %w", err)
	}
	defer rows.Close()

	var out []HintImage
	for rows.Next() {
		var (
			h       HintImage
			created int64
		)
		if err := rows.Scan(&h.ID, &h.CheckID, &h.URL, &h.Prompt, &created); err != nil {
			return nil, fmt.Errorf("scan hint image: %w", err)
		}
		h.CreatedAt = fromMillis(created)
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetTodayActivityCounts counts initial answers written on day and the
// distinct questions that reached a verdict on day.
func (r *repo) GetTodayActivityCounts(ctx context.Context, userID int64, day time.Time) (ActivityCounts, error) {
	d := formatDay(day)

	a := r.b.Table(tableAnswers)
	newAnswers, err := r.count(ctx, r.b.Select(entsql.Count("*")).From(a).
		Where(entsql.And(
			entsql.EQ(a.C("user_id"), userID),
			entsql.EQ(a.C("is_initial"), true),
			entsql.EQ(a.C("answer_date"), d),
		)))
	if err != nil {
		return ActivityCounts{}, fmt.Errorf("count new answers: %w", err)
	}

	c := r.b.Table(tableChecks)
	checks, err := r.count(ctx, r.b.Select("COUNT(DISTINCT "+c.C("question_id")+")").From(c).
		Where(entsql.And(
			entsql.EQ(c.C("user_id"), userID),
			entsql.EQ(c.C("check_date"), d),
			entsql.In(c.C("result"), string(ResultPass), string(ResultFail)),
		)))
	if err != nil {
		return ActivityCounts{}, fmt.Errorf("count memory checks: %w", err)
	}

	return ActivityCounts{NewAnswers: newAnswers, MemoryChecks: checks}, nil
}

// GetQuestionsAnsweredByUser returns every question with an initial answer
// from userID, in answer order, with its check history folded in.
func (r *repo) GetQuestionsAnsweredByUser(ctx context.Context, userID int64) ([]AnsweredQuestion, error) {
	answered, err := r.answeredQuestions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list answered questions: %w", err)
	}
	if len(answered) == 0 {
		return nil, nil
	}

	idx := make(map[int64]int, len(answered))
	for i, aq := range answered {
		idx[aq.Question.ID] = i
	}

	t := r.b.Table(tableChecks)
	query, args := r.b.Select(t.C("question_id"), t.C("result"), t.C("check_date")).
		From(t).
		Where(entsql.EQ(t.C("user_id"), userID)).
		Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list check history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			qid    int64
			result string
			day    string
		)
		if err := rows.Scan(&qid, &result, &day); err != nil {
			return nil, fmt.Errorf("scan check history: %w", err)
		}
		i, ok := idx[qid]
		if !ok {
			continue
		}
		d, err := parseDay(day)
		if err != nil {
			return nil, err
		}
		aq := &answered[i]
		aq.Checks++
		if CheckResult(result) == ResultPass {
			aq.Passes++
		}
		if d.After(aq.LastCheckedOn) {
			aq.LastCheckedOn = d
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return answered, nil
}

func (r *repo) answeredQuestions(ctx context.Context, userID int64) ([]AnsweredQuestion, error) {
	// Join renames an unaliased table, so both sides get explicit aliases
	// before any column is qualified.
	q := r.b.Table(tableQuestions).As("q")
	a := r.b.Table(tableAnswers).As("a")
	cols := append(questionColumns(q), a.C("id"), a.C("answer_date"))
	query, args := r.b.Select(cols...).
		From(a).
		Join(q).On(a.C("question_id"), q.C("id")).
		Where(entsql.And(
			entsql.EQ(a.C("user_id"), userID),
			entsql.EQ(a.C("is_initial"), true),
		)).
		OrderBy(a.C("answer_date"), a.C("id")).
		Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnsweredQuestion
	for rows.Next() {
		var (
			aq      AnsweredQuestion
			status  string
			created int64
			day     string
		)
		if err := rows.Scan(&aq.Question.ID, &aq.Question.Text, &status, &created, &aq.InitialAnswerID, &day); err != nil {
			return nil, fmt.Errorf("scan answered question: %w", err)
		}
		d, err := parseDay(day)
		if err != nil {
			return nil, err
		}
		aq.Question.Status = QuestionStatus(status)
		aq.Question.CreatedAt = fromMillis(created)
		aq.AnsweredOn = d
		out = append(out, aq)
	}
	return out, rows.Err()
}
