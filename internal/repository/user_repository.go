package repository

import (
	"database/sql"
	"fmt"

	"github.com/quiz-arena/arena-backend/pkg/database"
)

// UserRepository 아이덴티티 협력 시스템에 대한 읽기 전용 접근
// 표시 이름 해석과 학급 구성원 조회에만 쓰인다 (사용자 레코드는 이 코어가 쓰지 않는다).
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// DisplayName 사용자 ID → 표시 이름
func (r *UserRepository) DisplayName(userID string) (string, error) {
	query := `SELECT display_name FROM users WHERE id = $1`

	var name string
	err := r.db.QueryRow(query, userID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve display name: %w", err)
	}

	return name, nil
}

// ClassmateIDs 같은 학급에 속한 다른 사용자 ID 목록
// 방 생성 알림 대상을 정하는 데만 쓰인다.
func (r *UserRepository) ClassmateIDs(userID string) ([]string, error) {
	query := `
		SELECT DISTINCT cm2.user_id
		FROM class_members cm1
		JOIN class_members cm2 ON cm2.class_id = cm1.class_id
		WHERE cm1.user_id = $1 AND cm2.user_id != $1
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query classmates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan classmate id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
