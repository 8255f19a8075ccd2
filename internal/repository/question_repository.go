package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pathwise/compass-backend/internal/model"
)

// QuestionRepository loads the per-grade section and question banks.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListSections assembles the ordered section list for a grade/stream
// pair, questions included. Sections keyed to stream 'all' apply to
// every stream of that grade.
func (r *QuestionRepository) ListSections(ctx context.Context, gradeLevel, streamID string) ([]model.Section, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, section_id, title, response_scale,
		        is_timed, is_aptitude, is_adaptive,
		        time_limit, individual_time_limit, individual_count
		 FROM assessment_sections
		 WHERE grade_level = $1 AND (stream_id = $2 OR stream_id = 'all')
		 ORDER BY position`, gradeLevel, streamID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []model.Section
	var pks []int
	for rows.Next() {
		var pk int
		var s model.Section
		var scale []byte
		if err := rows.Scan(&pk, &s.ID, &s.Title, &scale,
			&s.IsTimed, &s.IsAptitude, &s.IsAdaptive,
			&s.TimeLimit, &s.IndividualTimeLimit, &s.IndividualCount); err != nil {
			return nil, err
		}
		if len(scale) > 0 {
			if err := json.Unmarshal(scale, &s.ResponseScale); err != nil {
				return nil, fmt.Errorf("unmarshal response scale: %w", err)
			}
		}
		sections = append(sections, s)
		pks = append(pks, pk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sections {
		if sections[i].IsAdaptive {
			sections[i].Finalize()
			continue
		}
		questions, err := r.listQuestions(ctx, pks[i])
		if err != nil {
			return nil, err
		}
		sections[i].Questions = questions
		sections[i].Finalize()
	}
	return sections, nil
}

// UpsertSection writes one section row for a grade/stream pair and
// replaces its question bank wholesale, so re-seeding cannot leave
// stale items behind. Used by the seeder only.
func (r *QuestionRepository) UpsertSection(ctx context.Context, gradeLevel, streamID string, position int, s model.Section) error {
	var scale []byte
	if len(s.ResponseScale) > 0 {
		b, err := json.Marshal(s.ResponseScale)
		if err != nil {
			return fmt.Errorf("marshal response scale: %w", err)
		}
		scale = b
	}

	var pk int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assessment_sections
		   (section_id, title, grade_level, stream_id, response_scale,
		    is_timed, is_aptitude, is_adaptive,
		    time_limit, individual_time_limit, individual_count, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (section_id, grade_level, stream_id) DO UPDATE SET
		   title = EXCLUDED.title, response_scale = EXCLUDED.response_scale,
		   is_timed = EXCLUDED.is_timed, is_aptitude = EXCLUDED.is_aptitude,
		   is_adaptive = EXCLUDED.is_adaptive, time_limit = EXCLUDED.time_limit,
		   individual_time_limit = EXCLUDED.individual_time_limit,
		   individual_count = EXCLUDED.individual_count, position = EXCLUDED.position
		 RETURNING id`,
		s.ID, s.Title, gradeLevel, streamID, scale,
		s.IsTimed, s.IsAptitude, s.IsAdaptive,
		s.TimeLimit, s.IndividualTimeLimit, s.IndividualCount, position).Scan(&pk)
	if err != nil {
		return fmt.Errorf("upsert section: %w", err)
	}

	if _, err := r.pool.Exec(ctx,
		`DELETE FROM assessment_questions WHERE section_pk = $1`, pk); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for i, q := range s.Questions {
		var options []byte
		if len(q.Options) > 0 {
			b, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("marshal options: %w", err)
			}
			options = b
		}
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO assessment_questions
			   (section_pk, question_id, text, type, options, correct_answer, max_selections, category, subtag, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			pk, q.ID, q.Text, q.Type, options,
			q.CorrectAnswer, q.MaxSelections, q.Category, q.Subtag, i); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	return nil
}

func (r *QuestionRepository) listQuestions(ctx context.Context, sectionPK int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, text, type, options, correct_answer, max_selections, category, subtag
		 FROM assessment_questions
		 WHERE section_pk = $1
		 ORDER BY position`, sectionPK)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &options,
			&q.CorrectAnswer, &q.MaxSelections, &q.Category, &q.Subtag); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("unmarshal options: %w", err)
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
