package middleware

// FailedStageHeader names the pipeline stage that failed a request. Handlers set it on error
// replies; the access log and the request metrics read it back from the response.
const FailedStageHeader = "x-failed-stage"
