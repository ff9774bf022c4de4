package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DamageMessage 피어 브로드캐스트 (저장소 쓰기 전에 날아가는 저지연 알림)
// 순수한 지연 최적화일 뿐, 절대 단독 진실 공급원이 아니다.
type DamageMessage struct {
	MatchID        string `json:"matchId"`
	TargetPlayerID string `json:"targetPlayerId"`
	Damage         int    `json:"damage"`
	QuestionIndex  int    `json:"questionIndex"`
}

// Notifier 매치 단위 이중 채널 전파
// damage 채널: 피어 브로드캐스트, state 채널: 저장소 쓰기마다 전체 레코드 피드
type Notifier struct {
	client *redis.Client
	logger *zap.Logger
}

func NewNotifier(client *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger,
	}
}

func damageChannel(matchID string) string {
	return fmt.Sprintf("arena:match:%s:damage", matchID)
}

func stateChannel(matchID string) string {
	return fmt.Sprintf("arena:match:%s:state", matchID)
}

// PublishDamage 데미지 브로드캐스트 발행
func (n *Notifier) PublishDamage(ctx context.Context, msg DamageMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal damage message: %w", err)
	}

	return n.client.Publish(ctx, damageChannel(msg.MatchID), data).Err()
}

// PublishState 전체 매치 레코드 발행 (변경 피드)
func (n *Notifier) PublishState(ctx context.Context, match *models.ArenaMatch) error {
	data, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match state: %w", err)
	}

	return n.client.Publish(ctx, stateChannel(match.ID), data).Err()
}

// Subscription 매치 하나에 대한 구독 (ctx 취소 시 채널이 닫힌다)
type Subscription struct {
	Damage <-chan DamageMessage
	State  <-chan *models.ArenaMatch
}

// Subscribe damage/state 두 채널 구독 시작
func (n *Notifier) Subscribe(ctx context.Context, matchID string) *Subscription {
	pubsub := n.client.Subscribe(ctx, damageChannel(matchID), stateChannel(matchID))

	damageCh := make(chan DamageMessage, 16)
	stateCh := make(chan *models.ArenaMatch, 16)

	go func() {
		defer close(damageCh)
		defer close(stateCh)
		defer pubsub.Close()

		msgCh := pubsub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				n.dispatch(matchID, msg, damageCh, stateCh)
			case <-ctx.Done():
				return
			}
		}
	}()

	return &Subscription{
		Damage: damageCh,
		State:  stateCh,
	}
}

func (n *Notifier) dispatch(matchID string, msg *redis.Message, damageCh chan<- DamageMessage, stateCh chan<- *models.ArenaMatch) {
	switch msg.Channel {
	case damageChannel(matchID):
		var dm DamageMessage
		if err := json.Unmarshal([]byte(msg.Payload), &dm); err != nil {
			n.logger.Warn("Failed to decode damage message",
				zap.String("matchId", matchID), zap.Error(err))
			return
		}
		select {
		case damageCh <- dm:
		default:
			// 버퍼가 가득 차면 버린다: 폴링 폴백이 어차피 따라잡는다
		}

	case stateChannel(matchID):
		var match models.ArenaMatch
		if err := json.Unmarshal([]byte(msg.Payload), &match); err != nil {
			n.logger.Warn("Failed to decode match state",
				zap.String("matchId", matchID), zap.Error(err))
			return
		}
		select {
		case stateCh <- &match:
		default:
		}
	}
}
