package controller

const (
	msgLoadingThreads = "Loading threads…"
	msgNoThreads      = "No threads yet in this category."
	msgThreadsFailed  = "Could not load threads. Please try again."
	msgLoadingThread  = "Loading…"
	msgThreadFailed   = "Could not load thread."
	msgFirstReply     = "Be the first to reply."

	msgLoginThreads  = "Please log in to like threads."
	msgLoginReplies  = "Please log in to like replies."
	msgLikedThread   = "You already liked this thread."
	msgLikedReply    = "You already liked this reply."
	msgLikeFailed    = "Could not record your like."
	msgFillThread    = "Please fill in a title and body."
	msgFillReply     = "Please write a reply first."
	msgPublished     = "Thread published!"
	msgReplied       = "Reply posted!"
	msgPublishFailed = "Failed to create thread"
	msgReplyFailed   = "Failed to post reply"
	msgThreadSaved   = "Thread updated."
	msgReplySaved    = "Reply updated."
	msgThreadDeleted = "Thread deleted."
	msgReplyDeleted  = "Reply deleted."
	msgDeleteFailed  = "Could not delete. Please try again."

	labelPublishing = "Publishing…"
	labelPosting    = "Posting…"
)
