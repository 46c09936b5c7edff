package constant

import "contactiq-be/pkg/pipeline"

// Escalation message templates per mode and reason. Customer messages speak
// to the end user; banker messages instruct staff on the handoff.

var escalationMessagesCustomer = map[pipeline.Reason]string{
	pipeline.ReasonHumanOnlyIntent: `I understand this requires personalized assistance from our team.

Please contact customer service:
- Call our support line (24/7)
- Visit your local branch
- Use internet banking or the mobile app

Our team will be able to help you with this matter.`,

	pipeline.ReasonSensitiveIntent: `I can't access your personal account information here for security reasons.

To get help with your account, please:
- Call our support line (24/7)
- Visit your local branch
- Log in to internet banking or the mobile app

Our team will be able to assist you with your specific account.`,

	pipeline.ReasonLowConfidence: `I want to make sure I give you the most accurate information.

For the most reliable answer, I recommend speaking directly with our customer service team:
- Call our support line (24/7)
- Visit your local branch
- Use internet banking or the mobile app

They'll be able to provide you with the most up-to-date and accurate information.`,

	pipeline.ReasonRetrievalEmpty: `I don't have enough information to answer your question accurately.

To get the help you need, please contact:
- Our customer service line (24/7)
- Your local branch
- Internet banking or the mobile app

Our team will be happy to assist you.`,

	pipeline.ReasonUpstreamFailure: `I'm having trouble processing your request right now, so let me point you to someone who can help.

Please contact customer service:
- Call our support line (24/7)
- Visit your local branch
- Use internet banking or the mobile app

A team member will be happy to help you.`,
}

var escalationMessagesBanker = map[pipeline.Reason]string{
	pipeline.ReasonHumanOnlyIntent: `This query requires human review and cannot be handled automatically.

Please escalate to:
- Senior banker or branch manager
- Specialist team (if applicable)
- Compliance team (if regulatory question)

Document the escalation reason before closing the case.`,

	pipeline.ReasonSensitiveIntent: `This query requires access to customer-specific account information.

Please:
- Access the customer account through appropriate systems
- Follow privacy and security protocols
- Escalate if additional authorization is needed

Document the escalation reason before closing the case.`,

	pipeline.ReasonLowConfidence: `The confidence score for this response is below threshold.

Recommendation: escalate to ensure accurate information is provided.

Please:
- Review the query and retrieved information
- Consult policy documents or specialist team if needed
- Document the escalation reason`,

	pipeline.ReasonRetrievalEmpty: `Insufficient information retrieved to answer this query accurately.

Please:
- Review available resources
- Consult with specialist team if needed
- Escalate if information is not available

Document the escalation reason before closing the case.`,

	pipeline.ReasonUpstreamFailure: `The assistant could not complete this query automatically.

Please:
- Handle the query manually
- Escalate to the appropriate team if needed
- Document the escalation reason`,
}

// EscalationMessage returns the handoff text for a mode and reason.
// Unmapped reasons fall back to the human_only template.
func EscalationMessage(mode pipeline.Mode, reason pipeline.Reason) string {
	messages := escalationMessagesCustomer
	if mode == pipeline.ModeBanker {
		messages = escalationMessagesBanker
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return messages[pipeline.ReasonHumanOnlyIntent]
}
