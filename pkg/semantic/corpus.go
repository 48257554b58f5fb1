package semantic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadExemplarFile reads a YAML exemplar corpus.
func LoadExemplarFile(path string) ([]Exemplar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("semantic: read %s: %w", path, err)
	}
	var out []Exemplar
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("semantic: parse %s: %w", path, err)
	}
	return out, nil
}

// builtinExemplars is the fallback corpus when no YAML file is
// configured. Kept small; the external corpus is the real one.
func builtinExemplars() []Exemplar {
	return []Exemplar{
		{Text: "검찰청입니다. 귀하 명의의 계좌가 범죄에 연루되어 조사가 필요합니다", Category: "authority_impersonation", Language: "ko", Risk: 0.95},
		{Text: "사건 조사를 위해 안전계좌로 자금을 이동해 주셔야 합니다", Category: "safe_account", Language: "ko", Risk: 0.95},
		{Text: "본인 확인을 위해 방금 전송된 인증번호를 불러주세요", Category: "otp_relay", Language: "ko", Risk: 0.95},
		{Text: "보안 점검을 위해 원격 제어 앱을 설치해 주세요", Category: "remote_control", Language: "ko", Risk: 0.9},
		{Text: "엄마 나 폰 고장나서 그러는데 지금 급하게 돈 좀 보내줄 수 있어?", Category: "family_impersonation", Language: "ko", Risk: 0.9},
		{Text: "택배 주소지 오류로 배송이 보류되었습니다. 아래 링크에서 확인하세요", Category: "delivery_smishing", Language: "ko", Risk: 0.8},
		{Text: "재택 부업으로 하루 30만원 보장합니다. 텔레그램으로 연락주세요", Category: "job_scam", Language: "ko", Risk: 0.8},
		{Text: "전문가 리딩방에서 수익률 300% 보장해 드립니다", Category: "investment_scam", Language: "ko", Risk: 0.8},
		{Text: "this is your bank security team, we detected suspicious activity and need you to verify the one-time code we just sent", Category: "otp_relay", Language: "en", Risk: 0.95},
		{Text: "install this remote support app so our technician can secure your account", Category: "remote_control", Language: "en", Risk: 0.9},
		{Text: "your parcel is on hold due to unpaid customs fees, settle now via this link", Category: "delivery_smishing", Language: "en", Risk: 0.8},
		{Text: "buy gift cards and send me the codes, I will reimburse you double", Category: "gift_card", Language: "en", Risk: 0.9},
		{Text: "안녕하세요 고객님, 주문하신 상품이 정상적으로 발송되었습니다", Category: "benign", Language: "ko", Risk: 0.0},
		{Text: "회의 자료 공유드립니다. 검토 후 의견 부탁드려요", Category: "benign", Language: "ko", Risk: 0.0},
		{Text: "thanks for your order, your receipt is attached", Category: "benign", Language: "en", Risk: 0.0},
	}
}
