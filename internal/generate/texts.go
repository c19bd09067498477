package generate

import (
	"regexp"

	"autoblogger/internal/model"
)

// SEOKeywords is the fixed list of required keyword strings woven into
// outlines and counted by the quality scorer.
var SEOKeywords = []string{
	"광화문",
	"종로",
	"화이팅 통증의학과",
	"통증의학과",
	"정형외과",
	"충격파",
	"도수",
	"주사",
}

// InternalLinkPolicy is the one-line internal-linking policy carried by every
// outline packet.
const InternalLinkPolicy = "문맥/토픽 상관성이 매우 높을 때만 내부링크 추가(억지 금지, 0개 허용)"

var hamstringTitle = regexp.MustCompile(`(햄스트링|hamstring|하체|첫\s*스텝|스텝)`)

// numberExample returns the stable quantified example line per seed category.
func numberExample(seedType string) string {
	switch seedType {
	case model.SeedTennis:
		return "워밍업을 평소보다 10~15분 더 잡아보세요."
	case model.SeedWeights:
		return "워밍업을 평소보다 10~15분 더 길게 잡고, 메인 세트는 1~2세트 줄여보세요."
	}
	return "체감 강도가 7/10 이상이면(숨이 차고 대화가 끊기는 정도), 그 날은 강도를 한 단계 낮추는 게 안전합니다."
}

// empathyHook returns the category-specific opening line.
func empathyHook(seedType, title string) string {
	switch seedType {
	case model.SeedTennis:
		if hamstringTitle.MatchString(title) {
			return "하체 운동 다음날, 코트에서 첫 스텝이 늦게 나오는 느낌… 겪어보신 적 있으신가요?"
		}
		return "테니스 치러 갔는데, 몸이 생각보다 안 따라오는 날… 있으셨죠?"
	case model.SeedWeights:
		return "운동은 하고 싶은데, 특정 부위가 먼저 뻐근해서 ‘오늘은 강도를 낮춰야 하나?’ 고민되는 날이 있죠."
	}
	return "같은 동작을 해도 유독 불편한 날이 있어요. 그럴 때 기준이 없으면 더 불안해집니다."
}

func takeaways(seedType string) []string {
	switch seedType {
	case model.SeedTennis:
		return []string{
			"몸이 늦게 풀리는 날이 생기는 이유(피로/근육통/추위)",
			"테니스에서 컨디션을 안전하게 조절하는 3단계 루틴",
			"이런 신호면 쉬거나 진료를 고려해야 하는 기준",
		}
	case model.SeedWeights:
		return []string{
			"운동 중 ‘불편함’이 생기는 대표 패턴",
			"오늘 세션을 망치지 않는 조절 방법",
			"악화 신호/진료 필요 신호",
		}
	}
	return []string{
		"증상을 ‘패턴’으로 이해하는 방법",
		"지금 당장 할 수 있는 실천 포인트",
		"악화 신호와 다음 단계(진료/재활) 기준",
	}
}

func tags(seedType string) string {
	switch seedType {
	case model.SeedTennis:
		return "테니스, 부상예방, 워밍업, 운동일지"
	case model.SeedWeights:
		return "웨이트, 근육통, 회복, 운동일지"
	}
	return "통증, 재활, 자가관리"
}

func topicOutline(seedType string) []string {
	if seedType == model.SeedTennis {
		return []string{
			"왜 첫 스텝/반응이 늦어질까(피로/근육통/추위)",
			"하체 웨이트 다음날(특히 햄스트링) 체크 포인트",
			"워밍업 시간을 늘려야 하는 이유",
			"오늘 코트에서의 ‘강도 조절’ 3단계",
			"중단/진료 신호",
			"(필요 시) 회복 루틴(스트레칭/수분/수면)",
		}
	}
	return []string{
		"증상이 생기는 대표 패턴(부하/자세/회복)",
		"오늘 운동을 조절하는 기준",
		"자가 체크(만져보기/움직여보기)",
		"3단계 대응(집/운동/진료)",
		"예방 루틴",
	}
}

func packetOutline(seedType string) []string {
	if seedType == model.SeedTennis {
		return []string{
			"도입: 공감 2~3문장 + 질문 1개 + ‘이 글에서 얻는 것 3가지’",
			"왜 몸이 늦게 풀리는지(피로/근육통/추위) — 쉬운 말로",
			"숫자/비유 1개(예: 워밍업 10~15분 추가) + 독자 참여(체크해보세요)",
			"오늘 코트에서 조절하는 3단계(집/코트/중단 신호)",
			"마무리: 예방이 최선 + 진료 안내(과장 없이)",
		}
	}
	return []string{
		"도입: 공감 + 질문 + 얻는 것 3가지",
		"핵심 개념(왜/무엇/어떻게)",
		"구체 정보(숫자/비유) + 독자 참여",
		"실천 체크리스트(3~6개)",
		"진료 필요 신호 + 치료 옵션 가이드(홍보 아님)",
	}
}

// placeholderDirectives returns the three image directives per seed category.
func placeholderDirectives(seedType string) []string {
	if seedType == model.SeedTennis {
		return []string{
			`[IMAGE: query="tennis warm up" alt="테니스 워밍업" caption="워밍업이 길어지는 날엔 이유가 있습니다." slot="hook"]`,
			`[IMAGE: query="hamstring anatomy" alt="햄스트링" caption="하체 피로가 남으면 반응이 늦게 느껴질 수 있어요." slot="mechanism"]`,
			`[IMAGE: query="dynamic stretching" alt="다이나믹 스트레칭" caption="짧게, 안전하게, 단계적으로." slot="checklist"]`,
		}
	}
	return []string{
		`[IMAGE: query="stretching" alt="스트레칭" caption="가볍게 풀어주는 것부터." slot="hook"]`,
		`[IMAGE: query="muscle anatomy" alt="근육" caption="과부하가 쌓이면 신호가 옵니다." slot="mechanism"]`,
		`[IMAGE: query="exercise checklist" alt="체크리스트" caption="오늘은 이렇게 조절해보세요." slot="checklist"]`,
	}
}

func visitSignals() []string {
	return []string{
		"통증이 1~2주 이상 지속되거나 점점 심해짐",
		"저림/감각 이상/근력 저하가 동반됨",
		"일상 동작에서도 통증이 반복됨(문고리 돌리기/물건 들기 등)",
		"운동 볼륨을 줄여도 재발을 반복함",
	}
}

func treatments() []string {
	return []string{
		"충격파: 만성 과사용/부착부 통증에서 보조적으로 고려",
		"도수(수기/운동치료 포함): 사용 패턴 교정 + 운동치료 설계",
		"주사: 통증 조절이 필요하거나 염증 양상이 뚜렷할 때 의료진 판단 하 선택",
	}
}

func draftChecklist(seedType string) []string {
	if seedType == model.SeedTennis {
		return []string{
			"집/라커룸에서 10~15분 더 데우기(가동성 + 가벼운 점프)",
			"코트에서는 게임보다 패턴 연습 비중을 높이기",
			"첫 스텝이 늦으면, 볼에 늦게 들어가지 말고 스플릿 스텝을 0.5박 빠르게",
			"날카로운 통증/찌릿함/힘 빠짐이 동반되면 중단",
		}
	}
	return []string{
		"통증이 나는 동작은 ‘고집’하지 않고 대체 동작으로 바꾸기",
		"메인 세트 볼륨을 1~2세트 줄여 회복 여지를 남기기",
		"통증이 ‘찌릿/저림’으로 바뀌면 중단",
	}
}
