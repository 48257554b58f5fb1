package rules

// defaultRuleDefs is the built-in smishing/voice-phishing lexicon.
// Weights are empirically tuned against the labeled scenario corpus;
// override per-analysis via ScoringOptions rather than editing here.
//
// Pattern notes: Go's \b is ASCII-only, so Korean patterns rely on
// explicit spacing/particle alternation instead of word boundaries.
var defaultRuleDefs = []RuleDef{
	// === verify stage ===
	{
		ID: "otp_request", Label: "OTP / verification code", Stage: StageVerify, Weight: 12,
		Patterns: []string{
			`(?i)\bOTP\b`,
			`인증\s*번호`,
			`승인\s*번호`,
			`보안\s*카드\s*번호`,
			`(?i)one[- ]?time\s+(code|password|pin)`,
			`(?i)verification\s+code`,
		},
	},
	{
		ID: "otp_relay", Label: "OTP relay demand", Stage: StageVerify, Weight: 12,
		Patterns: []string{
			`(인증|승인)\s*번호[^\n]{0,20}(알려|보내|불러|입력|전달)`,
			`(?i)(tell|send|read|give)\s+(me\s+)?(the\s+)?(otp|code)`,
			`문자로\s*(온|받은)\s*번호`,
		},
	},
	{
		ID: "verify_account", Label: "account verification demand", Stage: StageVerify, Weight: 9,
		Patterns: []string{
			`본인\s*(인증|확인)`,
			`계좌\s*(확인|인증|조회)`,
			`(?i)verify\s+(your\s+)?(account|identity)`,
			`(?i)confirm\s+(your\s+)?identity`,
			`명의\s*도용`,
		},
	},
	{
		ID: "pii_request", Label: "personal data request", Stage: StageVerify, Weight: 9,
		Patterns: []string{
			`주민\s*(등록)?\s*번호`,
			`신분증\s*(사진|사본|제출)?`,
			`비밀\s*번호`,
			`카드\s*번호`,
			`계좌\s*번호[^\n]{0,16}(알려|보내|입력)`,
			`(?i)(social\s+security|passport)\s+number`,
			`(?i)card\s+number\s+and\s+(cvv|cvc|pin)`,
		},
	},
	{
		ID: "authority_impersonation", Label: "authority impersonation", Stage: StageVerify, Weight: 10,
		Patterns: []string{
			`검찰(청|입니다)?`,
			`검사\s*(입니다|실)`,
			`경찰(서|청|입니다)?`,
			`수사관`,
			`금융\s*감독원|금감원`,
			`국세청`,
			`보안\s*팀`,
			`(?i)(prosecutor|police|federal|interpol)`,
			`(?i)security\s+(team|department)`,
			`(?i)fraud\s+(unit|department)`,
		},
	},
	{
		ID: "bank_claim", Label: "bank identity claim", Stage: StageVerify, Weight: 6,
		Patterns: []string{
			`(KB|국민|신한|우리|하나|농협|기업|새마을|카카오|토스)\s*(은행|뱅크)`,
			`은행\s*(직원|상담원|담당자)`,
			`(?i)your\s+bank\b`,
		},
	},

	// === install stage ===
	{
		ID: "remote_app", Label: "remote control app", Stage: StageInstall, Weight: 12,
		Patterns: []string{
			`(?i)anydesk|teamviewer|quicksupport|rustdesk`,
			`애니\s*데스크|팀\s*뷰어`,
			`원격\s*(제어|조종|지원|접속)`,
			`(?i)remote\s+(control|access|support)\s+(app|tool|program)`,
		},
	},
	{
		ID: "install_app", Label: "app install demand", Stage: StageInstall, Weight: 9,
		Patterns: []string{
			`(앱|어플|프로그램)[을를]?\s*(설치|깔)`,
			`설치\s*(해|하시|부탁|후)`,
			`(?i)install\s+(this|the)\s+(app|apk|program)`,
			`(?i)download\s+and\s+install`,
		},
	},
	{
		ID: "apk_file", Label: "raw executable delivery", Stage: StageInstall, Weight: 11,
		Patterns: []string{
			`(?i)\.apk\b`,
			`(?i)apk\s*(파일|file)`,
			`(?i)\.exe\b`,
		},
	},

	// === payment stage ===
	{
		ID: "transfer_request", Label: "transfer demand", Stage: StagePayment, Weight: 10,
		Patterns: []string{
			`(이체|송금|입금)\s*(해|하|부탁|요청|바랍)`,
			`(이체|송금|입금)`,
			`(?i)(wire|bank)\s+transfer`,
			`(?i)(transfer|send)\s+(the\s+)?(money|funds|\$?\d)`,
		},
	},
	{
		ID: "payment_request", Label: "payment demand", Stage: StagePayment, Weight: 7,
		Patterns: []string{
			`(결제|납부|지불)\s*(해|하|부탁|요청|바랍|필요)`,
			`(?i)payment\s+(is\s+)?(required|due)`,
			`(?i)pay\s+(now|immediately|today)`,
		},
	},
	{
		ID: "protected_account", Label: "safe-account transfer", Stage: StagePayment, Weight: 10,
		Patterns: []string{
			`(안전|보호|국가\s*관리)\s*계좌`,
			`(?i)(safe|protected|secure)\s+account`,
		},
	},
	{
		ID: "cash_pickup", Label: "cash pickup", Stage: StagePayment, Weight: 12,
		Patterns: []string{
			`현금[으로을]?\s*(찾|인출|준비|전달|가져)`,
			`(만나서|직접)\s*(현금|전달)`,
			`(?i)cash\s+(pickup|courier|in\s+person)`,
			`(?i)hand\s+(over|me)\s+the\s+cash`,
		},
	},
	{
		ID: "gift_card", Label: "gift card payment", Stage: StagePayment, Weight: 12,
		Patterns: []string{
			`(기프트|문화\s*상품|구글\s*기프트)\s*(카드|권)`,
			`핀\s*번호[^\n]{0,16}(보내|알려)`,
			`(?i)(gift|itunes|google\s*play|steam)\s+card`,
		},
	},
	{
		ID: "crypto_wallet", Label: "crypto wallet payment", Stage: StagePayment, Weight: 11,
		Patterns: []string{
			`(가상|암호)\s*화폐`,
			`(코인|비트코인|이더리움|테더)[^\n]{0,12}(지갑|전송|보내)`,
			`(?i)(crypto|bitcoin|btc|eth|usdt)\s+(wallet|address)`,
			`(?i)send\s+(btc|eth|usdt|crypto)`,
		},
	},
	{
		ID: "account_rental", Label: "account rental", Stage: StagePayment, Weight: 11,
		Patterns: []string{
			`(통장|계좌)[을를]?\s*(대여|빌려|삽니다|매입)`,
			`(?i)rent\s+(your\s+)?(bank\s+)?account`,
		},
	},
	{
		ID: "qr_payment", Label: "QR payment", Stage: StagePayment, Weight: 10,
		Patterns: []string{
			`(QR|큐알)\s*(코드)?[^\n]{0,12}(결제|스캔|인증)`,
			`(?i)scan\s+(this\s+)?qr`,
		},
	},
	{
		ID: "atm_visit", Label: "ATM visit", Stage: StagePayment, Weight: 9,
		Patterns: []string{
			`(?i)\bATM\b`,
			`현금\s*(자동\s*)?인출기`,
			`에이티엠`,
		},
	},
	{
		ID: "pay_link", Label: "pay-via-link", Stage: StagePayment, Weight: 7,
		Patterns: []string{
			`링크[^\n]{0,12}(결제|납부)`,
			`(?i)pay(ment)?\s+(via|through|using)\s+(this\s+)?link`,
		},
	},
	{
		ID: "escrow_hold", Label: "escrow-style deposit", Stage: StagePayment, Weight: 6,
		Patterns: []string{
			`(보증금|예치금|담보금)`,
			`(?i)\bescrow\b`,
			`(?i)(security|holding)\s+deposit`,
		},
	},

	// === info stage (lures, pressure, context) ===
	{
		ID: "urgency", Label: "urgency pressure", Stage: StageInfo, Weight: 4,
		Patterns: []string{
			`지금\s*(당장|바로|즉시)`,
			`(빨리|서둘러|급히)`,
			`(오늘|금일)\s*(까지|안에|중으로)`,
			`(?i)(urgent(ly)?|immediately|right\s+away|asap)`,
			`시간이?\s*없`,
		},
	},
	{
		ID: "threat_pressure", Label: "threat / consequence", Stage: StageInfo, Weight: 7,
		Patterns: []string{
			`(차단|정지|동결)\s*(됩니다|된다|돼|될)`,
			`(구속|체포|형사\s*처벌|처벌|벌금|압류)`,
			`(?i)account\s+will\s+be\s+(suspended|blocked|closed|frozen)`,
			`(?i)(legal\s+action|arrest(ed)?|lawsuit)`,
			`불이익`,
		},
	},
	{
		ID: "secrecy", Label: "secrecy demand", Stage: StageInfo, Weight: 5,
		Patterns: []string{
			`(아무|다른\s*사람)(에게|한테)도?\s*(말하지|알리지)`,
			`비밀로\s*(해|하)`,
			`(?i)don'?t\s+tell\s+(anyone|anybody|your)`,
			`(?i)keep\s+(this|it)\s+(between|secret|confidential)`,
		},
	},
	{
		ID: "anti_verification", Label: "anti-verification coercion", Stage: StageInfo, Weight: 7,
		Patterns: []string{
			`전화[를を]?\s*끊지\s*마`,
			`(은행|경찰|가족)[에게에]?\s*(문의|확인|연락)하지\s*마`,
			`(?i)do\s+not\s+(hang\s+up|call\s+the\s+bank|verify)`,
			`직원[이가]?\s*물어보면`,
		},
	},
	{
		ID: "first_contact", Label: "unknown first contact", Stage: StageInfo, Weight: 3,
		Patterns: []string{
			`(저장\s*안\s*된|모르는)\s*번호`,
			`새\s*번호(입니다|예요|에요)`,
			`(?i)this\s+is\s+my\s+new\s+number`,
			`번호[가를]?\s*바뀌었`,
		},
	},
	{
		ID: "family_impersonation", Label: "family impersonation", Stage: StageInfo, Weight: 8,
		Patterns: []string{
			`(엄마|아빠|어머니|아버지)[^\n]{0,10}(나야|나\s|폰|휴대폰|핸드폰)`,
			`(폰|휴대폰|핸드폰|액정)[이가을]?\s*(고장|깨져|파손)`,
			`(?i)(hi\s+)?(mum|mom|dad)[^\n]{0,16}(new\s+(phone|number)|broke\s+my\s+phone)`,
		},
	},
	{
		ID: "delivery_alert", Label: "parcel / delivery hook", Stage: StageInfo, Weight: 4,
		Patterns: []string{
			`(택배|배송|운송장|소포)`,
			`(?i)(parcel|package|delivery)\s+(failed|pending|held|notification)`,
			`주소\s*(불일치|오류|확인)`,
		},
	},
	{
		ID: "job_lure", Label: "job / side-income lure", Stage: StageInfo, Weight: 6,
		Patterns: []string{
			`(재택|부업|알바|구인|채용)`,
			`고수익`,
			`일당\s*\d`,
			`(?i)(work\s+from\s+home|part[- ]?time\s+job|easy\s+money)`,
			`(?i)earn\s+(\$|₩)?\d+[^\n]{0,12}(a|per)\s+(day|week)`,
		},
	},
	{
		ID: "travel_lure", Label: "travel / prize lure", Stage: StageInfo, Weight: 4,
		Patterns: []string{
			`(여행\s*권|항공권|숙박권)[^\n]{0,10}당첨`,
			`(무료\s*여행|경품)`,
			`(?i)you\s+(have\s+)?won\b`,
			`(?i)free\s+(trip|vacation|voucher)`,
		},
	},
	{
		ID: "benefit_lure", Label: "benefit / subsidy lure", Stage: StageInfo, Weight: 5,
		Patterns: []string{
			`(정부|재난|긴급)\s*지원금`,
			`보조금`,
			`근로\s*장려금`,
			`(?i)(government|relief|stimulus)\s+(grant|fund|payment|benefit)`,
		},
	},
	{
		ID: "loan_lure", Label: "loan lure", Stage: StageInfo, Weight: 5,
		Patterns: []string{
			`(저금리|무담보|무서류)\s*대출`,
			`대출\s*(한도|승인|가능)`,
			`(?i)loan\s+(approved|pre[- ]?approved|offer)`,
			`(?i)low[- ]interest\s+loan`,
		},
	},
	{
		ID: "refund_lure", Label: "refund lure", Stage: StageInfo, Weight: 5,
		Patterns: []string{
			`(환급|환불)\s*(금|대상|신청|받)`,
			`과오납`,
			`(?i)refund\s+(available|pending|due)`,
			`(?i)claim\s+your\s+refund`,
		},
	},
	{
		ID: "investment_lure", Label: "investment lure", Stage: StageInfo, Weight: 7,
		Patterns: []string{
			`(투자|리딩방|종목\s*추천)`,
			`수익[률율]?\s*(보장|보증|\d+\s*%)`,
			`원금\s*보장`,
			`(?i)guaranteed\s+(returns?|profit)`,
			`(?i)investment\s+(opportunity|club|signal)`,
		},
	},
	{
		ID: "contact_move", Label: "move to private messenger", Stage: StageInfo, Weight: 5,
		Patterns: []string{
			`(카톡|카카오톡|텔레그램|라인|위챗)[으로로]?\s*(연락|추가|문의|이동)`,
			`(?i)(add|message|contact)\s+(me\s+)?on\s+(whatsapp|telegram|line|kakao)`,
			`오픈\s*채팅`,
		},
	},
	{
		ID: "visit_place", Label: "visit-place demand", Stage: StageInfo, Weight: 7,
		Patterns: []string{
			`\d+\s*번\s*출구`,
			`(으로|로)\s*(와\s*주세요|와주세요|오세요|나와|나오세요)`,
			`(지점|센터|사무실)[으로에]?\s*(방문|오)`,
			`(?i)come\s+to\s+(the\s+)?(exit|station|office|branch)`,
			`(?i)meet\s+(me\s+)?(at|in\s+front\s+of)`,
		},
	},
	{
		ID: "payment_alert", Label: "payment notification", Stage: StageInfo, Weight: 2,
		Patterns: []string{
			`(결제|출금|승인)\s*(완료|되었습니다|됐습니다)`,
			`(?i)(has\s+been\s+charged|payment\s+of\s+.{0,16}\s+was\s+made)`,
			`국외\s*승인`,
		},
	},
	{
		ID: "advice_official", Label: "official-channel advice", Stage: StageInfo, Weight: 0,
		Patterns: []string{
			`고객\s*센터[로에]?\s*(직접\s*)?(문의|전화|확인)`,
			`공식\s*(홈페이지|앱|사이트)`,
			`112에?\s*신고`,
			`1332`,
			`신고하세요`,
			`(?i)contact\s+(the\s+)?official\s+(support|website|app)`,
			`(?i)report\s+(it\s+)?to\s+the\s+police`,
		},
	},
}
